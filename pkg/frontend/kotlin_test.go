package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunctionType(t *testing.T) {
	desc := parseFunctionType("(Int, String) -> Unit")
	require.NotNil(t, desc)
	assert.Equal(t, []string{"Int", "String"}, desc.ParameterTypes)
	assert.Equal(t, "Unit", desc.ReturnType)
	assert.False(t, desc.IsSuspend)
	assert.Equal(t, "", desc.ReceiverType)
}

func TestParseFunctionType_Suspend(t *testing.T) {
	desc := parseFunctionType("suspend (T) -> Unit")
	require.NotNil(t, desc)
	assert.True(t, desc.IsSuspend)
	assert.Equal(t, []string{"T"}, desc.ParameterTypes)
}

func TestParseFunctionType_Receiver(t *testing.T) {
	desc := parseFunctionType("StringBuilder.(Int) -> Unit")
	require.NotNil(t, desc)
	assert.Equal(t, "StringBuilder", desc.ReceiverType)
}

func TestParseFunctionType_NotAFunction(t *testing.T) {
	assert.Nil(t, parseFunctionType("List<Int>"))
	assert.Nil(t, parseFunctionType(""))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("private data class User(", "data"))
	assert.True(t, containsWord("companion object Factory", "companion"))
	assert.False(t, containsWord("database class", "data"))
}

func TestKotlinVisibility(t *testing.T) {
	assert.Equal(t, "internal", kotlinVisibility("internal fun x"))
	assert.Equal(t, "public", kotlinVisibility("fun x"))
	assert.Equal(t, "private", kotlinVisibility("private val y"))
}
