package store

import (
	"crypto/rand"
	"math/big"
)

const (
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingLength   = 8
)

// TrackingGenerator returns a candidate tracking number.
type TrackingGenerator func() (string, error)

// RandomTrackingNumber draws trackingLength symbols uniformly from A-Z0-9.
func RandomTrackingNumber() (string, error) {
	max := big.NewInt(int64(len(trackingAlphabet)))
	buf := make([]byte, trackingLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = trackingAlphabet[n.Int64()]
	}
	return string(buf), nil
}
