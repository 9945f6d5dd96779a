package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/file"
	"github.com/dmitrymomot/gymcrm/pkg/qrcode"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

const (
	receiptDir         = "subscriptions/receipts"
	receiptContentType = "application/pdf"
	qrImageName        = "qr"
)

// Receipt is everything printed on a subscription receipt.
type Receipt struct {
	Title        string
	Subscription membership.Subscription
	Member       catalog.Member
	Plan         catalog.Plan
}

// Receipts renders subscription receipts as PDF and stores them.
type Receipts struct {
	storage file.Storage
	cfg     Config
	clock   clock.Clock
}

// NewReceipts panics when storage is nil. A nil clock means UTC wall time.
func NewReceipts(storage file.Storage, cfg Config, clk clock.Clock) *Receipts {
	if storage == nil {
		panic("notify: receipt storage is required")
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &Receipts{storage: storage, cfg: cfg, clock: clk}
}

// ReceiptKey is the storage key of a receipt generated at t.
func ReceiptKey(subscriptionID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("%s/subscription_%s_%s.pdf", receiptDir, subscriptionID, t.Format("20060102_150405"))
}

// Publish renders rc and stores it under ReceiptKey. The PDF bytes are
// returned for use as an email attachment.
func (r *Receipts) Publish(ctx context.Context, rc Receipt) (file.Object, []byte, error) {
	now := r.clock.Now()
	data, err := r.Render(rc, now)
	if err != nil {
		return file.Object{}, nil, err
	}
	obj, err := r.storage.Put(ctx, ReceiptKey(rc.Subscription.ID, now), data, receiptContentType)
	if err != nil {
		return file.Object{}, nil, errors.Join(ErrStoreReceipt, err)
	}
	return obj, data, nil
}

// Render draws a single page A4 receipt.
func (r *Receipts) Render(rc Receipt, generatedAt time.Time) ([]byte, error) {
	sub := rc.Subscription
	qr, err := qrcode.PNG("SUB-"+sub.ID.String(), qrcode.WithSize(256))
	if err != nil {
		return nil, errors.Join(ErrRenderReceipt, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(rc.Title, true)
	pdf.SetAuthor(r.cfg.GymName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(r.cfg.GymName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{r.cfg.GymAddress, r.cfg.GymPhone, r.cfg.GymEmail} {
		if line != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(rc.Title), "B", 1, "L", false, 0, "")
	pdf.Ln(3)

	section := func(title string, rows [][2]string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
		for _, row := range rows {
			if row[1] == "" {
				continue
			}
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(50, 6, tr(row[0]), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	m := rc.Member
	section("Member", [][2]string{
		{"Name", m.FullName},
		{"Member ID", strconv.FormatInt(m.ID, 10)},
		{"Phone", m.PhoneNumber},
		{"Email", m.Email},
	})
	section("Membership", [][2]string{
		{"Plan", rc.Plan.Name},
		{"Type", string(rc.Plan.Type)},
		{"Amount", formatRupeesPlain(rc.Plan.Price)},
		{"Validity", formatValidity(rc.Plan.DurationDays)},
		{"Start date", formatDate(sub.StartDate)},
		{"End date", formatDate(sub.EndDate)},
		{"Status", string(sub.Status)},
		{"Subscription", sub.ID.String()},
	})

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(qr))
	y := pdf.GetY()
	pdf.ImageOptions(qrImageName, 150, y, 40, 40, false, opts, 0, "")
	pdf.SetY(y + 42)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Generated on "+generatedAt.Format(displayDate), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Join(ErrRenderReceipt, err)
	}
	return buf.Bytes(), nil
}
