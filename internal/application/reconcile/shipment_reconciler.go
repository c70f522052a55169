package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/edi"
	"go.uber.org/zap"
)

// 856 segment positions and qualifiers
const (
	bsnPosReference = 2
	bsnPosDate      = 3
	bsnPosTime      = 4

	dtmQualEstDeparture = "370"
	dtmQualEstArrival   = "371"

	v1PosVesselCode = 1
	v1PosVesselName = 2
	v1PosVoyage     = 4

	r4PosFunction      = 1
	r4PosCodeQualifier = 2
	r4PosCode          = 3

	r4FuncFirstReceipt     = "R"
	r4FuncLading           = "L"
	r4FuncUnlading         = "D"
	r4FuncFinalDestination = "E"
	r4FuncLastForeignPort  = "N"

	r4CodeQualUNLOC  = "UN"
	r4CodeQualSchedK = "K"

	td3PosSize   = 1
	td3PosPrefix = 2
	td3PosNumber = 3
	td3PosSeal   = 8

	prfPosOrderNumber = 1

	linPairsStart = 2
	linQualSKU    = "SK"
	linQualUPC    = "UP"

	sn1PosCartons = 2

	meaPosRefID     = 1
	meaPosQualifier = 2
	meaPosValue     = 3
	meaPosUOM       = 4

	meaQualGross  = "G"
	meaQualNet    = "N"
	meaQualVolume = "VOL"

	cldPosPieces = 2
)

// portFields maps each port function code to the shipment field it
// populates.
var portFields = []struct {
	function string
	assign   func(*logistics.Shipment, *uuid.UUID)
}{
	{r4FuncFirstReceipt, func(s *logistics.Shipment, id *uuid.UUID) { s.FirstReceiptPortID = id }},
	{r4FuncLading, func(s *logistics.Shipment, id *uuid.UUID) { s.LadingPortID = id }},
	{r4FuncUnlading, func(s *logistics.Shipment, id *uuid.UUID) { s.UnladingPortID = id }},
	{r4FuncFinalDestination, func(s *logistics.Shipment, id *uuid.UUID) { s.FinalDestinationPortID = id }},
	{r4FuncLastForeignPort, func(s *logistics.Shipment, id *uuid.UUID) { s.LastForeignPortID = id }},
}

// ShipmentReconciler consumes one 856 transaction's loop tree and
// creates or updates a Shipment with its containers and lines, or skips
// the document entirely when it is a stale redelivery.
type ShipmentReconciler struct {
	scope     TransactionScope
	shipments logistics.ShipmentRepository
	orders    trade.OrderRepository
	ports     logistics.PortRepository
	locks     shared.LockRegistry
	lockCfg   shared.LockConfig
	logger    *zap.Logger
}

// NewShipmentReconciler creates a new ShipmentReconciler. The shipment,
// order, and port repositories passed here are used outside the
// transactional scope: shipment resolve-or-create under the creation
// lock, the idempotency timestamp write, and read-only lookups during
// traversal.
func NewShipmentReconciler(scope TransactionScope, shipments logistics.ShipmentRepository, orders trade.OrderRepository, ports logistics.PortRepository, locks shared.LockRegistry, lockCfg shared.LockConfig, logger *zap.Logger) *ShipmentReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentReconciler{
		scope:     scope,
		shipments: shipments,
		orders:    orders,
		ports:     ports,
		locks:     locks,
		lockCfg:   lockCfg,
		logger:    logger,
	}
}

// Reconcile processes one shipment advice end to end: resolve-or-create
// under the creation lock, idempotency gate under the per-row update
// lock, header parse, body traversal accumulating business-rule
// violations, then a single commit of the whole graph.
func (r *ShipmentReconciler) Reconcile(ctx context.Context, doc DocumentContext, txn edi.Transaction) error {
	bsn, ok := edi.FindSegment(txn.Segments, "BSN")
	if !ok {
		return edi.NewStructuralError(edi.ErrCodeMissingSegment, "shipment advice without a BSN segment")
	}
	reference := bsn.Value(bsnPosReference)
	if reference == "" {
		return edi.NewStructuralError(edi.ErrCodeMissingIdentifier, "shipment advice without a reference")
	}
	exportedAt := edi.ParseCompactDateTime(bsn.Value(bsnPosDate), bsn.Value(bsnPosTime))

	// Build the loop tree before touching storage: a malformed
	// hierarchy must fail without side effects.
	roots, err := edi.BuildLoopTree(txn.Segments)
	if err != nil {
		return err
	}
	root := shipmentRoot(roots)
	if root == nil {
		return edi.NewStructuralError(edi.ErrCodeMissingSegment,
			fmt.Sprintf("shipment advice %s has no shipment-level loop", reference))
	}

	shipment, err := r.resolveOrCreate(ctx, doc.ImporterID, reference)
	if err != nil {
		return err
	}

	releaseUpdate, err := r.locks.AcquireWithRetry(ctx,
		fmt.Sprintf("shipment-update-%s", shipment.ID),
		r.lockCfg.RetryAttempts, r.lockCfg.RetryBackoff)
	if err != nil {
		return err
	}
	defer releaseUpdate()

	if exportedAt != nil {
		if shipment.IsStale(*exportedAt) {
			r.logger.Info("skipping stale shipment advice redelivery",
				zap.String("reference", reference),
				zap.Timep("incoming", exportedAt),
				zap.Timep("applied", shipment.LastExportedFromSource),
			)
			return nil
		}
		// Record the attempt time before parsing the body so a failure
		// partway through still marks the attempt.
		shipment.LastExportedFromSource = exportedAt
		if err := r.shipments.UpdateExportTimestamp(ctx, shipment.ID, *exportedAt); err != nil {
			return err
		}
	}

	if err := r.applyHeader(ctx, shipment, root.Segments); err != nil {
		return err
	}

	violations := NewRuleViolations()
	cache := newOrderCache(r.orders, doc.ImporterID)
	containers, lines, err := r.traverseBody(ctx, shipment, root, cache, violations)
	if err != nil {
		return err
	}

	shipment.MarkEntryPrepared(time.Now())

	// A complete picture of every unresolved reference, raised once.
	if err := violations.Err(); err != nil {
		return err
	}

	return r.scope.Execute(ctx, func(repos Repositories) error {
		if err := repos.Shipments().Save(ctx, shipment); err != nil {
			return err
		}
		if err := repos.Shipments().ReplaceCargo(ctx, shipment.ID, containers, lines); err != nil {
			return err
		}
		shipment.Containers = containers
		shipment.Lines = lines
		return recordSnapshot(ctx, repos, "Shipment", shipment.ID, doc.SourcePath, shipment)
	})
}

// resolveOrCreate looks up or creates the bare shipment row under the
// named creation lock, so concurrent arrivals for the same reference
// serialize on the existence check instead of racing on create. The
// lock is released as soon as the row exists.
func (r *ShipmentReconciler) resolveOrCreate(ctx context.Context, importerID uuid.UUID, reference string) (*logistics.Shipment, error) {
	release, err := r.locks.Acquire(ctx, fmt.Sprintf("Shipment-%s-%s", importerID, reference))
	if err != nil {
		return nil, err
	}
	defer release()

	shipment, err := r.shipments.FindByReference(ctx, importerID, reference)
	if err == nil {
		return shipment, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	shipment, err = logistics.NewShipment(importerID, reference)
	if err != nil {
		return nil, err
	}
	if err := r.shipments.Create(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// applyHeader reads the shipment-level fields from the root loop's own
// segments. Unknown port codes leave the field unset; port lookup never
// invents reference data.
func (r *ShipmentReconciler) applyHeader(ctx context.Context, shipment *logistics.Shipment, segments []edi.Segment) error {
	if td5, ok := edi.FindSegment(segments, "TD5"); ok {
		switch td5.Value(td5PosMode) {
		case "O":
			shipment.Mode = trade.TransportModeOcean
		case "A":
			shipment.Mode = trade.TransportModeAir
		}
	}
	if v1, ok := edi.FindSegment(segments, "V1"); ok {
		shipment.VesselCode = v1.Value(v1PosVesselCode)
		shipment.VesselName = v1.Value(v1PosVesselName)
		shipment.Voyage = v1.Value(v1PosVoyage)
	}
	shipment.MasterBill = edi.FindValueByQualifier(segments, "REF", refPosQualifier, refQualMasterBill, refPosValue)
	shipment.EstDeparture = edi.ParseCompactDate(
		edi.FindValueByQualifier(segments, "DTM", 1, dtmQualEstDeparture, 2))
	shipment.EstArrival = edi.ParseCompactDate(
		edi.FindValueByQualifier(segments, "DTM", 1, dtmQualEstArrival, 2))

	for _, field := range portFields {
		portID, err := r.resolvePort(ctx, segments, field.function)
		if err != nil {
			return err
		}
		field.assign(shipment, portID)
	}
	return nil
}

// resolvePort finds the R4 segment for a port function and resolves its
// code against the port reference table.
func (r *ShipmentReconciler) resolvePort(ctx context.Context, segments []edi.Segment, function string) (*uuid.UUID, error) {
	var r4 edi.Segment
	found := false
	edi.EachSegment(segments, "R4", func(seg edi.Segment) {
		if !found && seg.Value(r4PosFunction) == function {
			r4 = seg
			found = true
		}
	})
	if !found {
		return nil, nil
	}

	var codeType logistics.PortCodeType
	switch r4.Value(r4PosCodeQualifier) {
	case r4CodeQualUNLOC:
		codeType = logistics.PortCodeTypeUNLOC
	case r4CodeQualSchedK:
		codeType = logistics.PortCodeTypeSchedK
	default:
		return nil, nil
	}

	port, err := r.ports.FindByCode(ctx, codeType, r4.Value(r4PosCode))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &port.ID, nil
}

// traverseBody walks the loop tree in document order, building the
// replacement container and line sets in memory. Business-rule misses
// are accumulated and never stop the scan; structural errors abort.
func (r *ShipmentReconciler) traverseBody(ctx context.Context, shipment *logistics.Shipment, root *edi.LoopNode, cache *orderCache, violations *RuleViolations) ([]logistics.Container, []logistics.ShipmentLine, error) {
	var containers []logistics.Container
	var lines []logistics.ShipmentLine

	if shipment.IsOcean() {
		for _, equipment := range root.ChildrenAtLevel(edi.LevelEquipment) {
			td3, ok := equipment.FindSegment("TD3")
			if !ok {
				violations.Add(RuleMissingContainer, shipment.Reference)
				continue
			}

			container, err := logistics.NewContainer(shipment.ID, td3.Value(td3PosPrefix)+td3.Value(td3PosNumber))
			if err != nil {
				return nil, nil, err
			}
			container.Size = td3.Value(td3PosSize)
			container.SealNumber = td3.Value(td3PosSeal)
			containers = append(containers, *container)

			built, err := r.processOrderLoops(ctx, shipment, equipment.ChildrenAtLevel(edi.LevelOrder), &container.ID, cache, violations)
			if err != nil {
				return nil, nil, err
			}
			lines = append(lines, built...)
		}
		return containers, lines, nil
	}

	// Air shipments have no equipment tier; order loops hang directly
	// off the shipment level.
	built, err := r.processOrderLoops(ctx, shipment, root.ChildrenAtLevel(edi.LevelOrder), nil, cache, violations)
	if err != nil {
		return nil, nil, err
	}
	return nil, built, nil
}

// processOrderLoops resolves each order loop and descends into its
// items. An unresolved order contributes one violation and none of its
// items are processed.
func (r *ShipmentReconciler) processOrderLoops(ctx context.Context, shipment *logistics.Shipment, orderLoops []*edi.LoopNode, containerID *uuid.UUID, cache *orderCache, violations *RuleViolations) ([]logistics.ShipmentLine, error) {
	var lines []logistics.ShipmentLine

	for _, orderLoop := range orderLoops {
		prf, ok := orderLoop.FindSegment("PRF")
		if !ok || prf.Value(prfPosOrderNumber) == "" {
			return nil, edi.NewStructuralError(edi.ErrCodeMissingIdentifier,
				fmt.Sprintf("shipment %s has an order loop without an order number", shipment.Reference))
		}
		orderNumber := prf.Value(prfPosOrderNumber)

		order, err := cache.Lookup(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		if order == nil {
			violations.Add(RuleMissingOrder, orderNumber)
			continue
		}

		for _, itemLoop := range orderLoop.ChildrenAtLevel(edi.LevelItem) {
			line, err := r.buildItemLine(shipment, order, itemLoop, containerID, violations)
			if err != nil {
				return nil, err
			}
			if line != nil {
				lines = append(lines, *line)
			}
		}
	}
	return lines, nil
}

// buildItemLine constructs one shipment line from an item loop, linking
// it back to the order line matched by SKU. Returns nil (no error) when
// the SKU cannot be resolved; that is a business-rule miss.
func (r *ShipmentReconciler) buildItemLine(shipment *logistics.Shipment, order *trade.Order, itemLoop *edi.LoopNode, containerID *uuid.UUID, violations *RuleViolations) (*logistics.ShipmentLine, error) {
	lin, ok := itemLoop.FindSegment("LIN")
	if !ok {
		return nil, edi.NewStructuralError(edi.ErrCodeMissingIdentifier,
			fmt.Sprintf("shipment %s has an item loop without a LIN segment", shipment.Reference))
	}
	sku := edi.FindQualifiedPair(lin, linPairsStart, linQualSKU)
	if sku == "" {
		sku = edi.FindQualifiedPair(lin, linPairsStart, linQualUPC)
	}
	if sku == "" {
		return nil, edi.NewStructuralError(edi.ErrCodeMissingIdentifier,
			fmt.Sprintf("shipment %s has an item loop without a SKU", shipment.Reference))
	}

	orderLine := order.LineBySKU(sku)
	if orderLine == nil {
		violations.Add(RuleMissingOrderLine, fmt.Sprintf("%s/%s", order.OrderNumber, sku))
		return nil, nil
	}

	line, err := logistics.NewShipmentLine(shipment.ID, orderLine.ID)
	if err != nil {
		return nil, err
	}
	line.ContainerID = containerID

	if sn1, ok := itemLoop.FindSegment("SN1"); ok {
		line.CartonQuantity = parseDecimal(sn1.Value(sn1PosCartons))
	}
	line.InvoiceNumber = edi.FindValueByQualifier(itemLoop.Segments, "REF", refPosQualifier, refQualInvoice, refPosValue)
	line.GrossWeight = parseDecimal(
		edi.FindValueByQualifier(itemLoop.Segments, "MEA", meaPosQualifier, meaQualGross, meaPosValue))
	line.Volume = parseDecimal(
		edi.FindValueByQualifier(itemLoop.Segments, "MEA", meaPosQualifier, meaQualVolume, meaPosValue))

	if net := edi.FindValueByQualifier(itemLoop.Segments, "MEA", meaPosQualifier, meaQualNet, meaPosValue); net != "" {
		netWeight := parseDecimal(net)
		line.NetWeight = &netWeight
		line.NetWeightUOM = edi.FindValueByQualifier(itemLoop.Segments, "MEA", meaPosQualifier, meaQualNet, meaPosUOM)
	}

	pieces := decimal.Zero
	edi.EachSegment(itemLoop.Segments, "CLD", func(cld edi.Segment) {
		pieces = pieces.Add(parseDecimal(cld.Value(cldPosPieces)))
	})
	line.PieceQuantity = pieces

	return line, nil
}

// shipmentRoot returns the first shipment-level loop
func shipmentRoot(roots []*edi.LoopNode) *edi.LoopNode {
	for _, root := range roots {
		if root.Level == edi.LevelShipment {
			return root
		}
	}
	return nil
}
