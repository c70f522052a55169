package reconcile_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/application/reconcile"
)

func newProcessor(h *harness) *reconcile.Processor {
	return reconcile.NewProcessor(h.orderReconciler(), h.shipmentReconciler(), nil, nil)
}

func TestProcessor_ProcessDocument(t *testing.T) {
	t.Run("routes order and shipment transactions in one file", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		importerID := uuid.New()
		doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/mixed.edi"}

		raw := `ISA*00*          *00*          *ZZ*SENDER*ZZ*RECEIVER*260201*1200*U*00401*000000001*0*P*>~
GS*PO*SENDER*RECEIVER*20260201*1200*1*X*004010~
ST*850*0001~
BEG*00*NE*PO-500~
PO1*1*10*EA*2.50**SK*SKU-500~
SE*4*0001~
ST*856*0002~
BSN*00*SHP-500*20260201*1200~
HL*1**S~
TD5****A~
HL*2*1*O~
PRF*PO-500~
HL*3*2*I~
LIN**SK*SKU-500~
SE*9*0002~
GE*2*1~
IEA*1*000000001~
`
		require.NoError(t, newProcessor(h).ProcessDocument(ctx, doc, []byte(raw)))

		order, err := h.orders.FindByOrderNumber(ctx, importerID, "PO-500")
		require.NoError(t, err)
		assert.Len(t, order.Lines, 1)

		shipment, err := h.shipments.FindByReference(ctx, importerID, "SHP-500")
		require.NoError(t, err)
		assert.Len(t, shipment.Lines, 1)
	})

	t.Run("skips unsupported transaction sets", func(t *testing.T) {
		h := newHarness(t)
		doc := reconcile.DocumentContext{ImporterID: uuid.New(), SourcePath: "inbound/ack.edi"}

		raw := "ST*997*0001~\nAK1*PO*1~\nSE*3*0001~\n"
		assert.NoError(t, newProcessor(h).ProcessDocument(context.Background(), doc, []byte(raw)))
	})

	t.Run("one failing transaction does not stop the rest", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		importerID := uuid.New()
		doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: "inbound/partial.edi"}

		raw := `ST*850*0001~
CUR*BY*USD~
SE*3*0001~
ST*850*0002~
BEG*00*NE*PO-900~
PO1*1*5*EA*1.00**SK*SKU-900~
SE*4*0002~
`
		err := newProcessor(h).ProcessDocument(ctx, doc, []byte(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0001")

		// The valid transaction still landed
		order, findErr := h.orders.FindByOrderNumber(ctx, importerID, "PO-900")
		require.NoError(t, findErr)
		assert.Len(t, order.Lines, 1)
	})

	t.Run("malformed envelope fails whole document", func(t *testing.T) {
		h := newHarness(t)
		doc := reconcile.DocumentContext{ImporterID: uuid.New(), SourcePath: "inbound/cut.edi"}

		raw := "ST*850*0001~\nBEG*00*NE*PO-1~\n"
		assert.Error(t, newProcessor(h).ProcessDocument(context.Background(), doc, []byte(raw)))
	})
}
