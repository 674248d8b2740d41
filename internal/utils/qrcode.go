package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// OrderLink est l'adresse de suivi de commande encodée dans le QR.
func OrderLink(frontendURL, orderID string) string {
	return frontendURL + "/orders/" + orderID
}

// OrderQRPNG génère le QR de la commande en PNG.
func OrderQRPNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 256)
}

// OrderQRDataURL génère le QR en base64 prêt à mettre dans <img src="...">
func OrderQRDataURL(content string) (string, error) {
	png, err := OrderQRPNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
