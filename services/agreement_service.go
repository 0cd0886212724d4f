package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/davidkariuki5/car_rental/configs"
	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

var agreementTemplate = template.Must(template.New("agreement").Parse(`
<html>
<head><style>body{font-family:Georgia,serif;margin:48px;}h1{border-bottom:2px solid #333;}table{width:100%;border-collapse:collapse;}td{padding:6px 0;}</style></head>
<body>
<h1>Rental Agreement</h1>
<p>Reference: <b>{{.Reference}}</b></p>
<table>
<tr><td>Vehicle</td><td>{{.CarName}}</td></tr>
<tr><td>Owner</td><td>{{.OwnerName}}</td></tr>
<tr><td>Renter</td><td>{{.ClientName}}</td></tr>
<tr><td>Pickup date</td><td>{{.StartDate}}</td></tr>
<tr><td>Return date</td><td>{{.EndDate}}</td></tr>
<tr><td>Base amount</td><td>{{printf "%.2f" .OwnerPayout}}</td></tr>
<tr><td>Service fee</td><td>{{printf "%.2f" .ServiceFee}}</td></tr>
<tr><td>Total</td><td><b>{{printf "%.2f" .TotalPrice}}</b></td></tr>
</table>
<p>Issued {{.IssuedAt}}.</p>
</body>
</html>`))

// GenerateRentalAgreement renders the agreement for a confirmed booking to
// PDF, uploads it and links it on the booking. Runs in the background after
// the owner confirms; failures are logged, the booking stays valid without
// the document.
func GenerateRentalAgreement(booking models.Booking) {
	htmlData, err := renderAgreementHTML(booking)
	if err != nil {
		log.Printf("🔥 Failed to render agreement HTML for booking %s: %v", booking.ID, err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate agreement PDF for booking %s: %v", booking.ID, err)
		return
	}

	uploadURL, err := uploadAgreement(pdfBytes, booking.ID)
	if err != nil {
		log.Printf("🔥 Failed to upload agreement for booking %s: %v", booking.ID, err)
		return
	}

	if err := database.DB.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("agreement_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to link agreement on booking %s: %v", booking.ID, err)
		return
	}
	log.Printf("✅ Rental agreement generated for booking %s", booking.Reference)
}

func renderAgreementHTML(booking models.Booking) (string, error) {
	data := struct {
		Reference   string
		CarName     string
		OwnerName   string
		ClientName  string
		StartDate   string
		EndDate     string
		OwnerPayout float64
		ServiceFee  float64
		TotalPrice  float64
		IssuedAt    string
	}{
		Reference:   booking.Reference,
		CarName:     fmt.Sprintf("%s %s %d", booking.Car.Make, booking.Car.Model, booking.Car.Year),
		OwnerName:   booking.Owner.FullName,
		ClientName:  booking.Client.FullName,
		StartDate:   booking.StartDate.Format("January 2, 2006"),
		EndDate:     booking.EndDate.Format("January 2, 2006"),
		OwnerPayout: booking.OwnerPayout,
		ServiceFee:  booking.ServiceFee,
		TotalPrice:  booking.TotalPrice,
		IssuedAt:    time.Now().Format("January 2, 2006"),
	}

	var rendered bytes.Buffer
	if err := agreementTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadAgreement(fileBytes []byte, bookingID uuid.UUID) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("agreements/%s_%s", bookingID, uuid.New().String()),
		Folder:       "car_rental_agreements",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
