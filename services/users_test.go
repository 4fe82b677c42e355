package services

import (
	"bytes"
	"context"
	"testing"

	"scavenger-hunt/apperr"
)

func TestVoucherLockedUntilCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "+97412345678")

	_, err := env.users.Voucher(ctx, u.ID)
	wantCode(t, err, apperr.CodeGameNotCompleted)

	issued := env.completeEverything(t, u.ID).VoucherCode
	v, err := env.users.Voucher(ctx, u.ID)
	if err != nil {
		t.Fatalf("Voucher: %v", err)
	}
	if v.Code != issued || v.QRPayload != "VOUCHER:"+issued || v.IsClaimed {
		t.Fatalf("voucher = %+v", v)
	}

	png, err := env.users.VoucherQR(ctx, u.ID, 256)
	if err != nil {
		t.Fatalf("VoucherQR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("VoucherQR did not return a PNG")
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "+97412345678")

	if _, err := env.progress.CompleteGame(ctx, u.ID, "memory", ""); err != nil {
		t.Fatalf("CompleteGame: %v", err)
	}
	prof, err := env.users.Profile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if prof.User.ID != u.ID || prof.CompletedGames != 1 || prof.HintCredits != 3 || prof.GameCompleted {
		t.Fatalf("profile = %+v", prof)
	}

	_, err = env.users.Profile(ctx, "ghost")
	wantCode(t, err, apperr.CodeNotFound)
}

func TestCheckpointServiceListAndQR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seeding twice keeps the catalog at eight entries.
	if err := env.checkpoints.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	list, err := env.checkpoints.ListDetailed(ctx)
	if err != nil {
		t.Fatalf("ListDetailed: %v", err)
	}
	if len(list) != 8 || list[0].QRCode != "TALABAT_HUNT_RECEPTION_DESK" || list[0].Hint == "" {
		t.Fatalf("list[0] = %+v", list[0])
	}

	png, err := env.checkpoints.QRImage(ctx, list[0].ID, 0)
	if err != nil {
		t.Fatalf("QRImage: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("QRImage did not return a PNG")
	}
	_, err = env.checkpoints.QRImage(ctx, "nowhere", 0)
	wantCode(t, err, apperr.CodeNotFound)
}
