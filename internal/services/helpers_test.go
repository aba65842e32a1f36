package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"settlecli/internal/config"
	"settlecli/internal/shared/testutil"
)

func discardLogger() *slog.Logger {
	logger, _ := testutil.NewTestLogger(nil)
	return logger
}

func newTestService(t *testing.T, cfg config.UploadConfig) *WorkbookService {
	t.Helper()
	svc, _ := newLoggedTestService(t, cfg)
	return svc
}

// newLoggedTestService also returns the handler recording the service logs
func newLoggedTestService(t *testing.T, cfg config.UploadConfig) (*WorkbookService, *testutil.BufferedSlogHandler) {
	t.Helper()
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 1 << 20
	}
	if cfg.MaxWorkbooks == 0 {
		cfg.MaxWorkbooks = 8
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}

	logger, logs := testutil.NewTestLogger(t)
	svc, err := NewWorkbookService(cfg, nil, logger)
	require.NoError(t, err)
	return svc, logs
}

// holdersWorkbook has one resolvable sheet (including a row without a
// usable CUIT) and one sheet without any identifier column.
func holdersWorkbook(t *testing.T) []byte {
	return testutil.WorkbookBytes(t,
		testutil.Sheet("LECAP",
			[]interface{}{"CUIT", "Nombre", "Nominales"},
			[]interface{}{"20-111-1", "A", "1.000,00"},
			[]interface{}{"20-111-1", nil, 200},
			[]interface{}{"N/A", "Sin dato", 5},
		),
		testutil.Sheet("Sin CUIT",
			[]interface{}{"Titular", "Monto"},
			[]interface{}{"Ana", 10},
		),
	)
}
