package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedTranslatorServesRepeatsFromCache(t *testing.T) {
	stub := &stubTranslator{result: "hola"}
	cached := NewCachedTranslator(stub, time.Minute, testLogger())

	got, err := cached.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", got)

	got, err = cached.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", got)
	assert.Equal(t, 1, stub.calls)
}

func TestCachedTranslatorKeysOnLanguagePair(t *testing.T) {
	stub := &stubTranslator{result: "translated"}
	cached := NewCachedTranslator(stub, time.Minute, testLogger())

	_, err := cached.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	_, err = cached.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)

	assert.Equal(t, 2, stub.calls)
}

func TestCachedTranslatorDoesNotCacheErrors(t *testing.T) {
	stub := &stubTranslator{err: errors.New("backend down")}
	cached := NewCachedTranslator(stub, time.Minute, testLogger())

	_, err := cached.Translate(context.Background(), "hello", "en", "es")
	require.Error(t, err)

	stub.err = nil
	stub.result = "hola"
	got, err := cached.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", got)
	assert.Equal(t, 2, stub.calls)
}

func TestCachedTranslatorDelegatesHealthAndLanguages(t *testing.T) {
	stub := &stubTranslator{result: "hola"}
	cached := NewCachedTranslator(stub, time.Minute, testLogger())

	assert.NoError(t, cached.CheckHealth(context.Background()))

	langs, err := cached.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "es"}, langs)
}
