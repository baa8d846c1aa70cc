//go:build !windows

package printer

import "errors"

var errNoSpooler = errors.New("windows spooler is not available on this platform")

// OpenSpooler is only implemented on Windows.
func OpenSpooler(printerName string) (Transport, error) {
	return nil, &TransportError{Op: "open", Port: printerName, Err: errNoSpooler}
}

// SpoolerOpener returns an Opener for Session.Open.
func SpoolerOpener(printerName string) Opener {
	return func() (Transport, string, error) {
		t, err := OpenSpooler(printerName)
		return t, printerName, err
	}
}
