package booking

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"titration", "titration"},
		{"50%", `50\%`},
		{"lab_1", `lab\_1`},
		{`C:\data`, `C:\\data`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), tt.in)
	}
}

func TestPgTimeRoundTrip(t *testing.T) {
	for _, tod := range []TimeOfDay{Clock(0, 0), Clock(8, 30), Clock(21, 59), Clock(23, 59)} {
		pt := toPgTime(tod)
		assert.True(t, pt.Valid)
		assert.Equal(t, tod, fromPgTime(pt), tod.String())
	}
}

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{pgerrcode.ExclusionViolation, ErrTimeConflict},
		{pgerrcode.CheckViolation, ErrInvalidWindow},
		{pgerrcode.ForeignKeyViolation, ErrForeignEquipment},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: tt.code}, "write failed"), tt.want, tt.code)
	}

	plain := errors.New("connection reset")
	err := mapWriteError(plain, "write failed")
	assert.ErrorIs(t, err, plain)
	assert.EqualError(t, err, "write failed: connection reset")
}
