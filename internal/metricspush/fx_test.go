package metricspush

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLiveInvoicesRefresh(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	invoices := []invoicedomain.Invoice{
		{ID: 1, BusinessID: 1, PartyID: 1, InvoiceType: invoicedomain.InvoiceTypeSale, InvoiceNumber: "INV-001", InvoiceDate: now, DueDate: now, CreatedBy: 1, Status: invoicedomain.InvoiceStatusDraft, PaymentStatus: invoicedomain.PaymentStatusUnpaid},
		{ID: 2, BusinessID: 1, PartyID: 1, InvoiceType: invoicedomain.InvoiceTypeSale, InvoiceNumber: "INV-002", InvoiceDate: now, DueDate: now, CreatedBy: 1, Status: invoicedomain.InvoiceStatusDraft, PaymentStatus: invoicedomain.PaymentStatusUnpaid},
		{ID: 3, BusinessID: 1, PartyID: 1, InvoiceType: invoicedomain.InvoiceTypePurchase, InvoiceNumber: "PUR-001", InvoiceDate: now, DueDate: now, CreatedBy: 1, Status: invoicedomain.InvoiceStatusDraft, PaymentStatus: invoicedomain.PaymentStatusUnpaid},
	}
	require.NoError(t, db.Omit("Items").Create(&invoices).Error)
	require.NoError(t, db.Delete(&invoicedomain.Invoice{}, 2).Error)

	live := newLiveInvoices(prometheus.NewRegistry())
	require.NoError(t, live.refresh(context.Background(), db))

	assert.Equal(t, float64(1), testutil.ToFloat64(live.gauge.WithLabelValues("sale")))
	assert.Equal(t, float64(1), testutil.ToFloat64(live.gauge.WithLabelValues("purchase")))
}
