package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSheet(t *testing.T) {
	labels := []ToolLabel{
		{ToolID: 1, Name: "Bohrhammer", InventoryCode: "BH-0001"},
		{ToolID: 2, Name: "Stichsäge", InventoryCode: "SS-0002"},
		{ToolID: 3, Name: "Betonmischer"},
	}

	pdf, err := GenerateSheet(DefaultSheetConfig(), labels)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestGenerateSheetMultiPage(t *testing.T) {
	cfg := DefaultSheetConfig()
	perPage := cfg.Cols * cfg.Rows

	labels := make([]ToolLabel, perPage+1)
	for i := range labels {
		labels[i] = ToolLabel{ToolID: int64(i + 1), Name: "Tool"}
	}

	pdf, err := GenerateSheet(cfg, labels)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestGenerateSheetValidation(t *testing.T) {
	_, err := GenerateSheet(DefaultSheetConfig(), nil)
	assert.Error(t, err)

	_, err = GenerateSheet(SheetConfig{Cols: 0, Rows: 8}, []ToolLabel{{ToolID: 1}})
	assert.Error(t, err)
}
