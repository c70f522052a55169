package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/application/reconcile"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/edi"
)

const fullPurchaseOrder = `ST*850*0001~
BEG*00*NE*PO-1000**20260110~
CUR*BY*USD~
FOB*FOB~
TD5****O~
REF*SE*SPRING26~
REF*PR*GSP~
REF*CO*VN~
N1*DV*Menswear~
N1*VN*Acme Apparel**V-001~
N1*MF*Hanoi Garment**F-014~
N1*ST*East Coast DC**DC-02~
N1*AG*Pacific Sourcing~
PO1*1*100*EA*5.25**SK*SKU-A*IT*STYLE-A*HT*6109100012~
REF*DP*D071~
PO1*2*250*EA*7.80**SK*SKU-B*IT*STYLE-B*HT*6110202069~
SE*18*0001~
`

func TestOrderReconciler_CreatesOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-1000.edi"}

	err := h.orderReconciler().Reconcile(ctx, doc, parseOne(t, fullPurchaseOrder))
	require.NoError(t, err)

	order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-1000")
	require.NoError(t, err)

	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, "FOB", order.Terms)
	assert.Equal(t, trade.TransportModeOcean, order.Mode)
	assert.Equal(t, "SPRING26", order.Season)
	assert.Equal(t, "GSP", order.TradeProgram)
	assert.Equal(t, "VN", order.CountryOrigin)
	assert.Equal(t, "Pacific Sourcing", order.AgentName)
	require.NotNil(t, order.OrderDate)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), order.OrderDate.UTC())

	assert.NotNil(t, order.DivisionID)
	assert.NotNil(t, order.VendorID)
	assert.NotNil(t, order.FactoryID)
	assert.NotNil(t, order.ShipToID)

	require.Len(t, order.Lines, 2)
	first := order.LineByNumber(1)
	require.NotNil(t, first)
	assert.Equal(t, "SKU-A", first.SKU)
	assert.Equal(t, "EA", first.UnitOfMeasure)
	assert.Equal(t, "6109100012", first.TariffCode)
	assert.True(t, first.Quantity.Equal(decimalFromString(t, "100")))
	assert.True(t, first.UnitPrice.Equal(decimalFromString(t, "5.25")))
	// The department reference has no dedicated field and rides along
	assert.Equal(t, "D071", first.CustomAttributes["DP"])
}

func TestOrderReconciler_ResendFullyReplacesLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-1000.edi"}
	r := h.orderReconciler()

	require.NoError(t, r.Reconcile(ctx, doc, parseOne(t, fullPurchaseOrder)))

	resend := `ST*850*0002~
BEG*00*NE*PO-1000**20260110~
PO1*3*40*EA*9.99**SK*SKU-C*IT*STYLE-C*HT*6204624020~
SE*4*0002~
`
	require.NoError(t, r.Reconcile(ctx, doc, parseOne(t, resend)))

	order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-1000")
	require.NoError(t, err)

	// The prior lines 1 and 2 are gone; only the new line remains
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 3, order.Lines[0].LineNumber)
	assert.Equal(t, "SKU-C", order.Lines[0].SKU)
	// Header fields from the first document survive the resend
	assert.Equal(t, "USD", order.Currency)
}

func TestOrderReconciler_SentinelTariffExplodesLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-2000.edi"}

	raw := `ST*850*0001~
BEG*00*NE*PO-2000**20260110~
PO1*4*120*EA*0**SK*SKU-M*IT*STYLE-M*HT*9999999999~
REF*TC*6110202069*4.50~
REF*TC*6110303055*3.10~
REF*TC*6117809510*1.25~
SE*8*0001~
`
	require.NoError(t, h.orderReconciler().Reconcile(ctx, doc, parseOne(t, raw)))

	order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-2000")
	require.NoError(t, err)

	// One sentinel line with three breakdowns becomes three lines
	require.Len(t, order.Lines, 3)

	byNumber := map[int]string{}
	for _, line := range order.Lines {
		byNumber[line.LineNumber] = line.TariffCode
		assert.Equal(t, "SKU-M", line.SKU)
		assert.True(t, line.Quantity.Equal(decimalFromString(t, "120")))
	}
	assert.Equal(t, "6110202069", byNumber[401])
	assert.Equal(t, "6110303055", byNumber[402])
	assert.Equal(t, "6117809510", byNumber[403])

	breakdown := order.LineByNumber(401)
	require.NotNil(t, breakdown)
	assert.True(t, breakdown.UnitPrice.Equal(decimalFromString(t, "4.50")))
}

func TestOrderReconciler_SentinelWithoutBreakdownIsStructural(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-3000.edi"}

	raw := `ST*850*0001~
BEG*00*NE*PO-3000**20260110~
PO1*1*10*EA*0**SK*SKU-X*IT*STYLE-X*HT*9999999999~
SE*4*0001~
`
	err := h.orderReconciler().Reconcile(ctx, doc, parseOne(t, raw))
	require.Error(t, err)
	assert.True(t, edi.IsStructural(err))

	// Nothing was persisted
	_, err = h.orders.FindByOrderNumber(ctx, importerID, "PO-3000")
	assert.Error(t, err)
}

func TestOrderReconciler_InvalidHeaderStoredWithNote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-4000.edi"}

	// The currency element carries free text instead of a 3-letter code
	raw := `ST*850*0001~
BEG*00*NE*PO-4000**20260110~
CUR*BY*USDOLLAR~
PO1*1*10*EA*2.00**SK*SKU-N~
SE*5*0001~
`
	require.NoError(t, h.orderReconciler().Reconcile(ctx, doc, parseOne(t, raw)))

	order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-4000")
	require.NoError(t, err)

	// The invalid value was dropped, the order stored, and the problem
	// recorded for manual review.
	assert.Empty(t, order.Currency)
	assert.Contains(t, order.EntryNote, "USDOLLAR")
	require.Len(t, order.Lines, 1)
}

func TestOrderReconciler_StructuralErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := reconcile.DocumentContext{ImporterID: uuid.New(), SourcePath: "inbound/bad.edi"}
	r := h.orderReconciler()

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing BEG segment",
			raw:  "ST*850*0001~\nCUR*BY*USD~\nSE*3*0001~\n",
		},
		{
			name: "missing order number",
			raw:  "ST*850*0001~\nBEG*00*NE~\nSE*3*0001~\n",
		},
		{
			name: "line without line number",
			raw:  "ST*850*0001~\nBEG*00*NE*PO-X~\nPO1**10*EA*1**SK*S-1~\nSE*4*0001~\n",
		},
		{
			name: "line without product identifier",
			raw:  "ST*850*0001~\nBEG*00*NE*PO-X~\nPO1*1*10*EA*1~\nSE*4*0001~\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Reconcile(ctx, doc, parseOne(t, tt.raw))
			require.Error(t, err)
			assert.True(t, edi.IsStructural(err))
		})
	}
}

func TestOrderReconciler_RecordsAuditSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/po-1000.edi"}

	require.NoError(t, h.orderReconciler().Reconcile(ctx, doc, parseOne(t, fullPurchaseOrder)))

	order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-1000")
	require.NoError(t, err)

	snapshots, err := h.snapshots.FindByEntity(ctx, "Order", order.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, reconcile.ActingSystem, snapshots[0].ActingAs)
	assert.Equal(t, "inbound/po-1000.edi", snapshots[0].SourcePath)
	assert.Contains(t, string(snapshots[0].Payload), "PO-1000")
}

func TestOrderReconciler_SharedPartiesAcrossOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	importerID := uuid.New()
	r := h.orderReconciler()

	first := `ST*850*0001~
BEG*00*NE*PO-A~
N1*VN*Acme Apparel**V-001~
PO1*1*10*EA*1**SK*S-1~
SE*5*0001~
`
	second := `ST*850*0002~
BEG*00*NE*PO-B~
N1*VN*Acme Apparel**V-001~
PO1*1*10*EA*1**SK*S-2~
SE*5*0002~
`
	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/pos.edi"}
	require.NoError(t, r.Reconcile(ctx, doc, parseOne(t, first)))
	require.NoError(t, r.Reconcile(ctx, doc, parseOne(t, second)))

	orderA, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-A")
	require.NoError(t, err)
	orderB, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-B")
	require.NoError(t, err)

	require.NotNil(t, orderA.VendorID)
	require.NotNil(t, orderB.VendorID)
	assert.Equal(t, *orderA.VendorID, *orderB.VendorID)
}
