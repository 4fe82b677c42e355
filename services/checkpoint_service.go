package services

import (
	"context"

	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
	"scavenger-hunt/utils"
)

type CheckpointService struct {
	Store store.Checkpoints
	Log   zerolog.Logger
}

func NewCheckpointService(st store.Checkpoints, log zerolog.Logger) *CheckpointService {
	return &CheckpointService{Store: st, Log: log}
}

// CheckpointDetail exposes the fields hidden from players.
type CheckpointDetail struct {
	models.Checkpoint
	Hint   string `json:"hint"`
	QRCode string `json:"qr_code"`
}

// Seed upserts the default catalog. Scan statistics are preserved.
func (s *CheckpointService) Seed(ctx context.Context) error {
	cps := models.DefaultCheckpoints()
	for i := range cps {
		if err := s.Store.UpsertCheckpointDefinition(ctx, &cps[i]); err != nil {
			return apperr.Internal("failed to seed checkpoint "+cps[i].ID, err)
		}
	}
	s.Log.Info().Int("count", len(cps)).Msg("[Checkpoints] catalog seeded")
	return nil
}

func (s *CheckpointService) List(ctx context.Context) ([]models.Checkpoint, error) {
	cps, err := s.Store.ListCheckpoints(ctx)
	if err != nil {
		return nil, storeErr(err, "checkpoints not found")
	}
	return cps, nil
}

func (s *CheckpointService) ListDetailed(ctx context.Context) ([]CheckpointDetail, error) {
	cps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CheckpointDetail, len(cps))
	for i, cp := range cps {
		out[i] = CheckpointDetail{Checkpoint: cp, Hint: cp.Hint, QRCode: cp.QRCode}
	}
	return out, nil
}

// QRImage renders the checkpoint's printable QR code as PNG.
func (s *CheckpointService) QRImage(ctx context.Context, id string, size int) ([]byte, error) {
	cp, err := s.Store.GetCheckpoint(ctx, id)
	if err != nil {
		return nil, storeErr(err, "checkpoint not found")
	}
	png, err := utils.QRPNG(cp.QRCode, size)
	if err != nil {
		return nil, apperr.Internal("failed to render QR code", err)
	}
	return png, nil
}
