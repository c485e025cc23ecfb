package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupply(t *testing.T) {
	supply, err := NewSupply("acc-1")
	require.NoError(t, err)

	assert.NotEmpty(t, supply.SupplyID)
	assert.Equal(t, SupplyStatusNew, supply.Status)
	assert.True(t, supply.OpenSlot)
	require.Len(t, supply.GetDomainEvents(), 1)

	event, ok := supply.GetDomainEvents()[0].(*SupplyOpenedEvent)
	require.True(t, ok)
	assert.Equal(t, "fbs.supply.opened", event.EventType())
	assert.Equal(t, supply.SupplyID, event.SupplyID)

	supply.ClearDomainEvents()
	assert.Empty(t, supply.GetDomainEvents())
}

func TestNewSupplyRequiresAccount(t *testing.T) {
	_, err := NewSupply("")
	assert.ErrorIs(t, err, ErrAccountRequired)
}

func TestSupplyStatusHoldsOpenSlot(t *testing.T) {
	assert.True(t, SupplyStatusNew.HoldsOpenSlot())
	assert.True(t, SupplyStatusOpen.HoldsOpenSlot())
	assert.False(t, SupplyStatusClosed.HoldsOpenSlot())
	assert.False(t, SupplyStatusShipped.HoldsOpenSlot())
}

func TestNewPackage(t *testing.T) {
	lines := []PackageOrderLine{
		{OrderID: "o-1", OrderLineID: "l-1", Sort: 100},
		{OrderID: "o-1", OrderLineID: "l-2", Sort: 100},
	}

	pkg, err := NewPackage("acc-1", "sup-1", false, lines)
	require.NoError(t, err)

	assert.NotEmpty(t, pkg.PackageID)
	assert.Equal(t, []string{"o-1:l-1", "o-1:l-2"}, pkg.LineKeys)
	assert.False(t, pkg.OutOfBatch)
	require.Len(t, pkg.GetDomainEvents(), 1)
	assert.Equal(t, "fbs.package.created", pkg.GetDomainEvents()[0].EventType())

	lines[0].OrderID = "mutated"
	assert.Equal(t, "o-1", pkg.Lines[0].OrderID)
}

func TestLineKeyEscapesSeparator(t *testing.T) {
	assert.Equal(t, "o-1:l-1", LineKey("o-1", "l-1"))
	assert.Equal(t, `a\:b:c`, LineKey("a:b", "c"))
	assert.NotEqual(t, LineKey("a:b", "c"), LineKey("a", "b:c"))
	assert.NotEqual(t, LineKey(`a\`, "b"), LineKey(`a\:b`, ""))
}

func TestNewPackageValidation(t *testing.T) {
	line := []PackageOrderLine{{OrderID: "o-1", OrderLineID: "l-1"}}

	_, err := NewPackage("", "sup-1", false, line)
	assert.ErrorIs(t, err, ErrAccountRequired)

	_, err = NewPackage("acc-1", "", false, line)
	assert.ErrorIs(t, err, ErrSupplyRequired)

	_, err = NewPackage("acc-1", "sup-1", true, nil)
	assert.ErrorIs(t, err, ErrNoPackageLines)
}

func TestBatchCompletedFor(t *testing.T) {
	batch := &BatchSnapshot{Status: BatchStatusCompleted, CompletionChannel: "fbs"}
	assert.True(t, batch.CompletedFor("fbs"))
	assert.False(t, batch.CompletedFor("fbo"))

	batch.Status = BatchStatusInProgress
	assert.False(t, batch.CompletedFor("fbs"))
}

func TestOrderReadyForPackaging(t *testing.T) {
	order := &OrderSnapshot{Status: "ready_for_packaging", DeliveryType: "fbs"}
	assert.True(t, order.ReadyForPackaging("ready_for_packaging", "fbs"))
	assert.False(t, order.ReadyForPackaging("ready_for_packaging", "fbo"))
	assert.False(t, order.ReadyForPackaging("packed", "fbs"))
}
