package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neointegratech/portal-client/internal/workflow"
)

func TestBankChannels(t *testing.T) {
	banks := workflow.BankChannels()
	require.Len(t, banks, 8)

	codes := make([]string, 0, len(banks))
	for _, b := range banks {
		codes = append(codes, b.Code)
		assert.NotEmpty(t, b.Name, "bank %s has no display name", b.Code)
		assert.NotEmpty(t, b.Steps, "bank %s has no transfer steps", b.Code)
	}
	assert.Contains(t, codes, "bca")
	assert.Contains(t, codes, "mandiri")
	assert.Contains(t, codes, "bsi")
}

func TestInstructionsFor(t *testing.T) {
	t.Run("known bank", func(t *testing.T) {
		bank := workflow.InstructionsFor("bca")
		assert.Equal(t, "bca", bank.Code)
		assert.Equal(t, "BCA", bank.Name)
		assert.NotEmpty(t, bank.Steps)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, workflow.InstructionsFor("bni"), workflow.InstructionsFor("  BNI "))
	})

	t.Run("unlisted bank falls back to the generic steps", func(t *testing.T) {
		bank := workflow.InstructionsFor("jago")
		assert.Equal(t, "jago", bank.Code)
		assert.Equal(t, "JAGO", bank.Name)
		assert.NotEmpty(t, bank.Steps)
	})

	t.Run("empty channel", func(t *testing.T) {
		bank := workflow.InstructionsFor("")
		assert.Equal(t, "Bank", bank.Name)
		assert.NotEmpty(t, bank.Steps)
	})
}
