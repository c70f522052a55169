package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/edi"
	"go.uber.org/zap"
)

// 850 segment positions and qualifiers
const (
	begPosOrderNumber = 3
	begPosOrderDate   = 5

	curPosCurrency = 2
	fobPosTerms    = 1
	td5PosMode     = 4

	refPosQualifier   = 1
	refPosValue       = 2
	refPosDescription = 3

	refQualSeason        = "SE"
	refQualTradeProgram  = "PR"
	refQualCountryOrigin = "CO"
	refQualBreakdown     = "TC"
	refQualInvoice       = "IV"
	refQualMasterBill    = "BM"

	n1PosQualifier = 1
	n1PosName      = 2
	n1PosCode      = 4

	n1QualDivision = "DV"
	n1QualVendor   = "VN"
	n1QualFactory  = "MF"
	n1QualShipTo   = "ST"
	n1QualAgent    = "AG"

	po1PosLineNumber = 1
	po1PosQuantity   = 2
	po1PosUOM        = 3
	po1PosUnitPrice  = 4
	po1PairsStart    = 6

	pairQualSKU    = "SK"
	pairQualStyle  = "IT"
	pairQualTariff = "HT"
)

// knownLineRefQualifiers are REF qualifiers with dedicated handling on
// a line group; everything else lands in the line's custom attributes.
var knownLineRefQualifiers = map[string]struct{}{
	refQualBreakdown: {},
}

// DocumentContext carries the per-file metadata a reconciliation needs:
// the target importer and the originating storage path for audit
// snapshot linkage.
type DocumentContext struct {
	ImporterID uuid.UUID
	SourcePath string
}

// ActingSystem is the identity audit snapshots are tagged with
const ActingSystem = "EDI Processor"

// OrderReconciler consumes one 850 transaction's flat segments and
// creates or updates an Order with a consistent set of lines. Lines are
// always fully rebuilt from the incoming document; a re-send can never
// leave stale line numbers behind.
type OrderReconciler struct {
	scope   TransactionScope
	locks   shared.LockRegistry
	lockCfg shared.LockConfig
	logger  *zap.Logger
}

// NewOrderReconciler creates a new OrderReconciler
func NewOrderReconciler(scope TransactionScope, locks shared.LockRegistry, lockCfg shared.LockConfig, logger *zap.Logger) *OrderReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderReconciler{
		scope:   scope,
		locks:   locks,
		lockCfg: lockCfg,
		logger:  logger,
	}
}

// Reconcile processes one purchase order transaction end to end.
// Structural errors abort with nothing persisted; persistence
// validation problems are recorded as a note on the order instead of
// rejecting the document.
func (r *OrderReconciler) Reconcile(ctx context.Context, doc DocumentContext, txn edi.Transaction) error {
	beg, ok := edi.FindSegment(txn.Segments, "BEG")
	if !ok {
		return edi.NewStructuralError(edi.ErrCodeMissingSegment, "purchase order without a BEG segment")
	}
	orderNumber := beg.Value(begPosOrderNumber)
	if orderNumber == "" {
		return edi.NewStructuralError(edi.ErrCodeMissingIdentifier, "purchase order without an order number")
	}

	release, err := r.locks.Acquire(ctx, fmt.Sprintf("Order-%s-%s", doc.ImporterID, orderNumber))
	if err != nil {
		return err
	}
	defer release()

	r.logger.Debug("reconciling purchase order",
		zap.String("order_number", orderNumber),
		zap.String("source", doc.SourcePath),
	)

	headerSegments, lineGroups := splitLineGroups(txn.Segments)

	return r.scope.Execute(ctx, func(repos Repositories) error {
		order, err := repos.Orders().FindByOrderNumber(ctx, doc.ImporterID, orderNumber)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			order, err = trade.NewOrder(doc.ImporterID, orderNumber)
			if err != nil {
				return err
			}
		}

		if err := r.applyHeader(ctx, repos, order, headerSegments, beg); err != nil {
			return err
		}

		lines, err := r.buildLines(ctx, repos, order, lineGroups)
		if err != nil {
			return err
		}

		if err := repos.Orders().Save(ctx, order); err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				return err
			}
			// Imperfect order data is still useful downstream: clear
			// the offending values and store the document flagged for
			// manual review.
			order.AppendNote(fmt.Sprintf("validation failed during EDI reconciliation: %s", domainErr.Message))
			order.ClearInvalidHeaderValues()
			r.logger.Warn("order stored with validation note",
				zap.String("order_number", orderNumber),
				zap.String("note", domainErr.Message),
			)
			if err := repos.Orders().Save(ctx, order); err != nil {
				return err
			}
		}

		if err := repos.Orders().ReplaceLines(ctx, order.ID, lines); err != nil {
			return err
		}
		order.Lines = lines

		return recordSnapshot(ctx, repos, "Order", order.ID, doc.SourcePath, order)
	})
}

// applyHeader resolves the order's header fields from qualifier lookups
// and the document-level party loops.
func (r *OrderReconciler) applyHeader(ctx context.Context, repos Repositories, order *trade.Order, segments []edi.Segment, beg edi.Segment) error {
	order.OrderDate = edi.ParseCompactDate(beg.Value(begPosOrderDate))

	if cur, ok := edi.FindSegment(segments, "CUR"); ok {
		order.Currency = cur.Value(curPosCurrency)
	}
	if fob, ok := edi.FindSegment(segments, "FOB"); ok {
		order.Terms = fob.Value(fobPosTerms)
	}
	if td5, ok := edi.FindSegment(segments, "TD5"); ok {
		if err := applyTransportMode(order, td5.Value(td5PosMode)); err != nil {
			return err
		}
	}

	order.Season = edi.FindValueByQualifier(segments, "REF", refPosQualifier, refQualSeason, refPosValue)
	order.TradeProgram = edi.FindValueByQualifier(segments, "REF", refPosQualifier, refQualTradeProgram, refPosValue)
	order.CountryOrigin = edi.FindValueByQualifier(segments, "REF", refPosQualifier, refQualCountryOrigin, refPosValue)

	return r.applyParties(ctx, repos, order, segments, false)
}

// applyTransportMode maps the wire mode code onto the order. An
// unrecognized code is noted rather than fatal.
func applyTransportMode(order *trade.Order, code string) error {
	switch code {
	case "O":
		order.Mode = trade.TransportModeOcean
	case "A":
		order.Mode = trade.TransportModeAir
	case "":
	default:
		order.AppendNote(fmt.Sprintf("unrecognized transport mode code %q", code))
	}
	return nil
}

// applyParties resolves N1 party loops. At header level they always
// apply; at line level (fallback=true) they only fill fields not
// already set, for transactions that encode parties per-line.
func (r *OrderReconciler) applyParties(ctx context.Context, repos Repositories, order *trade.Order, segments []edi.Segment, fallback bool) error {
	var loopErr error
	edi.EachSegment(segments, "N1", func(n1 edi.Segment) {
		if loopErr != nil {
			return
		}
		name := n1.Value(n1PosName)
		code := n1.Value(n1PosCode)
		if code == "" {
			code = name
		}

		switch n1.Value(n1PosQualifier) {
		case n1QualDivision:
			if fallback && order.DivisionID != nil {
				return
			}
			division, err := repos.Divisions().FindOrCreateByName(ctx, order.ImporterID, name)
			if err != nil {
				loopErr = err
				return
			}
			order.DivisionID = &division.ID
		case n1QualVendor:
			loopErr = r.assignCompany(ctx, repos, order, &order.VendorID, trade.CompanyTypeVendor, code, name, fallback)
		case n1QualFactory:
			loopErr = r.assignCompany(ctx, repos, order, &order.FactoryID, trade.CompanyTypeFactory, code, name, fallback)
		case n1QualShipTo:
			loopErr = r.assignCompany(ctx, repos, order, &order.ShipToID, trade.CompanyTypeShipTo, code, name, fallback)
		case n1QualAgent:
			if fallback && order.AgentName != "" {
				return
			}
			order.AgentName = name
		}
	})
	return loopErr
}

func (r *OrderReconciler) assignCompany(ctx context.Context, repos Repositories, order *trade.Order, target **uuid.UUID, companyType trade.CompanyType, code, name string, fallback bool) error {
	if fallback && *target != nil {
		return nil
	}
	if code == "" {
		return nil
	}
	company, err := repos.Companies().FindOrCreate(ctx, order.ImporterID, companyType, code, name)
	if err != nil {
		return err
	}
	*target = &company.ID
	return nil
}

// splitLineGroups separates header segments from the repeating PO1 line
// groups: each group is a PO1 plus its sibling segments up to the next
// PO1.
func splitLineGroups(segments []edi.Segment) ([]edi.Segment, [][]edi.Segment) {
	var header []edi.Segment
	var groups [][]edi.Segment

	for _, seg := range segments {
		if seg.Tag == "PO1" {
			groups = append(groups, []edi.Segment{seg})
			continue
		}
		if len(groups) == 0 {
			header = append(header, seg)
		} else {
			groups[len(groups)-1] = append(groups[len(groups)-1], seg)
		}
	}
	return header, groups
}

// buildLines constructs the order's replacement line set in memory.
// Nothing touches storage except product resolution; the swap itself is
// a single atomic replace.
func (r *OrderReconciler) buildLines(ctx context.Context, repos Repositories, order *trade.Order, groups [][]edi.Segment) ([]trade.OrderLine, error) {
	lines := make([]trade.OrderLine, 0, len(groups))

	for _, group := range groups {
		built, err := r.buildLineGroup(ctx, repos, order, group)
		if err != nil {
			return nil, err
		}
		lines = append(lines, built...)
	}
	return lines, nil
}

func (r *OrderReconciler) buildLineGroup(ctx context.Context, repos Repositories, order *trade.Order, group []edi.Segment) ([]trade.OrderLine, error) {
	po1 := group[0]

	lineNumber, err := strconv.Atoi(po1.Value(po1PosLineNumber))
	if err != nil || lineNumber <= 0 {
		return nil, edi.NewStructuralError(edi.ErrCodeMissingIdentifier,
			fmt.Sprintf("order %s has a line group without a usable line number", order.OrderNumber))
	}

	sku := edi.FindQualifiedPair(po1, po1PairsStart, pairQualSKU)
	style := edi.FindQualifiedPair(po1, po1PairsStart, pairQualStyle)
	if style == "" {
		style = sku
	}
	if style == "" {
		return nil, edi.NewStructuralError(edi.ErrCodeMissingIdentifier,
			fmt.Sprintf("order %s line %d carries no product identifier", order.OrderNumber, lineNumber))
	}

	product, err := repos.Products().FindOrCreateByStyle(ctx, order.ImporterID, style)
	if err != nil {
		return nil, err
	}

	line, err := trade.NewOrderLine(order.ID, lineNumber, product.ID, parseDecimal(po1.Value(po1PosQuantity)))
	if err != nil {
		return nil, err
	}
	line.UnitOfMeasure = po1.Value(po1PosUOM)
	line.SKU = sku
	line.UnitPrice = parseDecimal(po1.Value(po1PosUnitPrice))
	line.TariffCode = edi.FindQualifiedPair(po1, po1PairsStart, pairQualTariff)

	// Unhandled REF qualifiers on the line ride along as custom
	// attributes.
	edi.EachSegment(group[1:], "REF", func(ref edi.Segment) {
		qualifier := ref.Value(refPosQualifier)
		if _, known := knownLineRefQualifiers[qualifier]; known || qualifier == "" {
			return
		}
		line.SetCustomAttribute(qualifier, ref.Value(refPosValue))
	})

	// Line-level party loops are a fallback for documents that encode
	// parties per-line rather than once per document.
	if err := r.applyParties(ctx, repos, order, group[1:], true); err != nil {
		return nil, err
	}

	if !line.HasSentinelTariff() {
		return []trade.OrderLine{*line}, nil
	}
	return explodeLine(order, line, group[1:])
}

// explodeLine replaces a sentinel-tariff line with one copy per
// breakdown segment, each with its own tariff code, price, and derived
// line number. A sentinel with zero breakdown segments means the
// document is internally inconsistent.
func explodeLine(order *trade.Order, line *trade.OrderLine, rest []edi.Segment) ([]trade.OrderLine, error) {
	var exploded []trade.OrderLine
	sequence := 0
	edi.EachSegment(rest, "REF", func(ref edi.Segment) {
		if ref.Value(refPosQualifier) != refQualBreakdown {
			return
		}
		sequence++
		dup := line.CloneForTariff(sequence, ref.Value(refPosValue), parseDecimal(ref.Value(refPosDescription)))
		exploded = append(exploded, *dup)
	})

	if len(exploded) == 0 {
		return nil, edi.NewStructuralError(edi.ErrCodeMissingBreakdown,
			fmt.Sprintf("order %s line %d carries the tariff placeholder but no breakdown segments", order.OrderNumber, line.LineNumber))
	}
	return exploded, nil
}

// parseDecimal reads a wire decimal; absent or malformed values come
// back as zero, consistent with the accessor layer's absence contract.
func parseDecimal(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// recordSnapshot stores an audit snapshot of the entity inside the
// current transaction.
func recordSnapshot(ctx context.Context, repos Repositories, entityType string, entityID uuid.UUID, sourcePath string, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	return repos.Snapshots().Record(ctx, shared.NewEntitySnapshot(entityType, entityID, ActingSystem, sourcePath, payload))
}
