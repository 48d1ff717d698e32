package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_TypedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input: %s", "foo"), KindValidation},
		{"upstream", UpstreamUnavailable("adapter failed", errors.New("timeout")), KindUpstreamUnavailable},
		{"data insufficient", DataInsufficient("need %d observations", 30), KindDataInsufficient},
		{"constraint violation", ConstraintViolation("weights out of bounds"), KindConstraintViolation},
		{"internal", Internal("boom", errors.New("panic")), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestKindOf_PlainErrorDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("unclassified")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("network reset")
	err := UpstreamUnavailable("binance fetch failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_unavailable")
	assert.Contains(t, err.Error(), "network reset")
}

func TestError_MessageFormatting(t *testing.T) {
	err := Validation("weights sum to %.3f, expected 1.0", 0.97)
	assert.Equal(t, fmt.Sprintf("%s: weights sum to 0.970, expected 1.0", KindValidation), err.Error())
}

func TestError_WithoutCause(t *testing.T) {
	err := DataInsufficient("need at least %d bars", 20)
	assert.NotContains(t, err.Error(), "<nil>")
	assert.Nil(t, err.Unwrap())
}
