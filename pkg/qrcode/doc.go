// Package qrcode renders QR codes as PNG images. Receipts embed one that
// encodes the subscription reference so front desk staff can scan it.
package qrcode
