package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
	ms "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/workers/rfq/match-suppliers"
)

func TestRun_RanksSamplePool(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-file", "testdata/rfq.json"}, nil, &out))

	var output ms.Output
	require.NoError(t, json.Unmarshal(out.Bytes(), &output))
	assert.Equal(t, "rfq-sample", output.RFQID)
	require.Len(t, output.Matches, 2)

	first := output.Matches[0]
	assert.Equal(t, "sup-local", first.SupplierID)
	assert.Equal(t, 1, first.Tier)
	assert.Equal(t, models.RouteSupplier, first.RoutingTarget)

	second := output.Matches[1]
	assert.Equal(t, "sup-far", second.SupplierID)
	assert.Equal(t, "p-2", second.ProductID)
	assert.Equal(t, models.RouteConcierge, second.RoutingTarget)
	assert.True(t, output.RequiresConcierge)
}

func TestRun_ReadsStdin(t *testing.T) {
	in := `{"rfq": {"id": "rfq-stdin", "materials": ["steel"]}, "candidates": []}`
	var out bytes.Buffer
	require.NoError(t, run(nil, strings.NewReader(in), &out))
	assert.Contains(t, out.String(), `"rfqId": "rfq-stdin"`)
	assert.Contains(t, out.String(), `"matchCount": 0`)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  apperrors.ErrorCode
	}{
		{"bad json", `{"rfq":`, apperrors.ErrCodeParseError},
		{"schema", `{"rfq": {"materials": ["steel"]}, "candidates": []}`, apperrors.ErrCodeSchemaValidationFailed},
		{"blank materials", `{"rfq": {"id": "r", "materials": ["  "]}, "candidates": []}`, apperrors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(nil, strings.NewReader(tt.input), &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.AsStandardError(err).Code)
		})
	}
}

func TestRun_NoPoolNoStore(t *testing.T) {
	err := run(nil, strings.NewReader(`{"rfq": {"id": "r", "materials": ["steel"]}}`), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-dsn")
}
