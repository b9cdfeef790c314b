package categorize_test

import (
	"testing"

	"fjacquet/statement-ledger/cmd/categorize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "categorize DESCRIPTION", categorize.Cmd.Use)
	assert.Contains(t, categorize.Cmd.Short, "rule table")
	assert.NotNil(t, categorize.Cmd.RunE)
}

func TestCategorizeCommand_Flags(t *testing.T) {
	amountFlag := categorize.Cmd.Flags().Lookup("amount")
	require.NotNil(t, amountFlag)
	assert.Equal(t, "a", amountFlag.Shorthand)
	assert.Equal(t, "", amountFlag.DefValue)
	assert.Contains(t, amountFlag.Usage, "amount")
}

func TestCategorizeCommand_Args(t *testing.T) {
	assert.Error(t, categorize.Cmd.Args(categorize.Cmd, nil))
	assert.NoError(t, categorize.Cmd.Args(categorize.Cmd, []string{"COFFEE", "SHOP"}))
}
