package service

// QRCodeService renders a URL as a PNG QR code, used to hand an authorization
// URL to a second device during linking.
type QRCodeService interface {
	// EncodeURL returns a PNG image encoding the given URL.
	EncodeURL(url string) ([]byte, error)
}
