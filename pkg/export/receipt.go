package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is the printable proof of a submitted admission registration.
type Receipt struct {
	Foundation         string
	RegistrationNumber string
	AcademicYear       string
	SchoolName         string
	StudentName        string
	ParentName         string
	ParentEmail        string
	StatusLabel        string
	SubmittedAt        time.Time
	StatusURL          string
}

// ReceiptRenderer draws registration receipts as single-page A5 PDFs.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render produces the receipt PDF. When StatusURL is set a QR code pointing
// at it is printed beside the details.
func (r *ReceiptRenderer) Render(rc Receipt) ([]byte, error) {
	if rc.RegistrationNumber == "" {
		return nil, fmt.Errorf("receipt requires a registration number")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 7, tr(rc.Foundation), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Bukti Pendaftaran Peserta Didik Baru"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, rc.RegistrationNumber, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Tahun Ajaran", rc.AcademicYear},
		{"Sekolah", rc.SchoolName},
		{"Nama Siswa", rc.StudentName},
		{"Orang Tua/Wali", rc.ParentName},
		{"Email", rc.ParentEmail},
		{"Status", rc.StatusLabel},
		{"Tanggal Daftar", rc.SubmittedAt.Format("02-01-2006 15:04")},
	}
	top := pdf.GetY()
	for _, row := range rows {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(32, 7, tr(row[0]), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(60, 7, tr(": "+row[1]), "", 1, "", false, 0, "")
	}

	if rc.StatusURL != "" {
		png, err := QRCodePNG(rc.StatusURL, 256)
		if err != nil {
			return nil, err
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("status-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("status-qr", 104, top, 28, 28, false, opts, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, tr("Simpan bukti ini. Pindai kode QR atau buka halaman cek status dengan nomor registrasi dan email orang tua untuk memantau hasil seleksi."), "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
