package document

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDocument(t *testing.T) *Document {
	t.Helper()
	fp := ComputeFingerprint([]byte("invoice bytes"))
	doc, err := NewDocument(
		uuid.New(), "BATCH-001", fp.Value,
		"Acme Foods", "INV-1001", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(512.40), "USD", "invoices/acme/INV-1001.pdf",
		uuid.New(), "Jane Ops",
	)
	require.NoError(t, err)
	return doc
}

func TestNewDocument(t *testing.T) {
	t.Run("creates document with valid inputs", func(t *testing.T) {
		doc := createTestDocument(t)

		assert.NotEqual(t, uuid.Nil, doc.ID)
		assert.Equal(t, "BATCH-001", doc.BatchID)
		assert.Equal(t, "Acme Foods", doc.Vendor)
		assert.False(t, doc.FingerprintWeak)
		assert.False(t, doc.IsDeleted())
		assert.Len(t, doc.GetDomainEvents(), 1)
	})

	t.Run("fails with empty fingerprint", func(t *testing.T) {
		_, err := NewDocument(uuid.New(), "B", "", "Acme", "INV-1", time.Now(), decimal.Zero, "USD", "", uuid.New(), "Jane")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fingerprint")
	})

	t.Run("fails with empty vendor", func(t *testing.T) {
		_, err := NewDocument(uuid.New(), "B", "abc", "", "INV-1", time.Now(), decimal.Zero, "USD", "", uuid.New(), "Jane")

		require.Error(t, err)
	})

	t.Run("fails with empty actor", func(t *testing.T) {
		_, err := NewDocument(uuid.New(), "B", "abc", "Acme", "INV-1", time.Now(), decimal.Zero, "USD", "", uuid.Nil, "")

		require.Error(t, err)
	})
}

func TestDocument_AddLine(t *testing.T) {
	doc := createTestDocument(t)

	t.Run("assigns 1-based ordinals in insertion order", func(t *testing.T) {
		first, err := doc.AddLine("WHOLE MILK GAL", "ea", decimal.NewFromInt(4), decimal.NewFromFloat(3.25), decimal.NewFromFloat(13))
		require.NoError(t, err)
		second, err := doc.AddLine("EGGS LARGE WHITE 15DZ", "cs", decimal.NewFromInt(2), decimal.NewFromFloat(28.5), decimal.NewFromFloat(57))
		require.NoError(t, err)

		assert.Equal(t, 1, first.Ordinal)
		assert.Equal(t, 2, second.Ordinal)
		assert.Equal(t, "whole milk gal", first.NormalizedDesc)
		assert.Equal(t, LineStatusUnresolved, first.Status)
	})

	t.Run("rejects empty description", func(t *testing.T) {
		_, err := doc.AddLine("", "ea", decimal.NewFromInt(1), decimal.Zero, decimal.Zero)

		require.Error(t, err)
	})
}

func TestDocument_ResolveLine(t *testing.T) {
	doc := createTestDocument(t)
	_, err := doc.AddLine("WHOLE MILK GAL", "ea", decimal.NewFromInt(4), decimal.NewFromFloat(3.25), decimal.NewFromFloat(13))
	require.NoError(t, err)

	t.Run("resolves an existing line", func(t *testing.T) {
		err := doc.ResolveLine(1, "MILK-001", 0.85)

		require.NoError(t, err)
		assert.True(t, doc.Lines[0].IsResolved())
		assert.Equal(t, "MILK-001", doc.Lines[0].ResolvedCode)
		assert.Equal(t, 0.85, doc.Lines[0].Confidence)
		assert.Zero(t, doc.UnresolvedCount())
	})

	t.Run("never downgrades an existing resolution", func(t *testing.T) {
		err := doc.ResolveLine(1, "MILK-002", 0.7)

		require.Error(t, err)
		assert.Equal(t, "MILK-001", doc.Lines[0].ResolvedCode)
		assert.Equal(t, 0.85, doc.Lines[0].Confidence)
	})

	t.Run("allows re-resolving at equal or higher confidence", func(t *testing.T) {
		err := doc.ResolveLine(1, "MILK-001", 1.0)

		require.NoError(t, err)
		assert.Equal(t, 1.0, doc.Lines[0].Confidence)
	})

	t.Run("fails for unknown ordinal", func(t *testing.T) {
		err := doc.ResolveLine(99, "MILK-001", 1.0)

		require.Error(t, err)
	})
}

func TestDocument_SoftDelete(t *testing.T) {
	doc := createTestDocument(t)

	require.NoError(t, doc.SoftDelete())
	assert.True(t, doc.IsDeleted())

	err := doc.SoftDelete()
	require.Error(t, err)
}

func TestDocument_UnresolvedLines(t *testing.T) {
	doc := createTestDocument(t)
	_, err := doc.AddLine("WHOLE MILK GAL", "ea", decimal.NewFromInt(4), decimal.NewFromFloat(3.25), decimal.NewFromFloat(13))
	require.NoError(t, err)
	_, err = doc.AddLine("MYSTERY ITEM", "ea", decimal.NewFromInt(1), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, doc.ResolveLine(1, "MILK-001", 0.9))

	unresolved := doc.UnresolvedLines()

	require.Len(t, unresolved, 1)
	assert.Equal(t, "MYSTERY ITEM", unresolved[0].RawDescription)
	assert.Equal(t, 1, doc.UnresolvedCount())
}

func TestFingerprint(t *testing.T) {
	t.Run("same bytes yield same fingerprint", func(t *testing.T) {
		a := ComputeFingerprint([]byte("same content"))
		b := ComputeFingerprint([]byte("same content"))

		assert.Equal(t, a.Value, b.Value)
		assert.False(t, a.Weak)
		assert.Len(t, a.Value, 64)
	})

	t.Run("different bytes yield different fingerprints", func(t *testing.T) {
		a := ComputeFingerprint([]byte("content a"))
		b := ComputeFingerprint([]byte("content b"))

		assert.NotEqual(t, a.Value, b.Value)
	})

	t.Run("fallback is marked weak and case-insensitive", func(t *testing.T) {
		a := FallbackFingerprint("Acme Foods", "INV-1001")
		b := FallbackFingerprint("ACME FOODS", "inv-1001")

		assert.True(t, a.Weak)
		assert.Equal(t, a.Value, b.Value)
	})

	t.Run("fallback distinguishes vendors", func(t *testing.T) {
		a := FallbackFingerprint("Acme Foods", "INV-1001")
		b := FallbackFingerprint("Other Vendor", "INV-1001")

		assert.NotEqual(t, a.Value, b.Value)
	})
}
