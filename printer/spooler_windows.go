//go:build windows
// +build windows

package printer

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// spoolerConn реализует io.ReadWriteCloser поверх Windows Spooler API
type spoolerConn struct {
	hPrinter windows.Handle
}

func (s *spoolerConn) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var written uint32
	r1, _, err := procWritePrinter.Call(
		uintptr(s.hPrinter),
		uintptr(unsafe.Pointer(&p[0])),
		uintptr(len(p)),
		uintptr(unsafe.Pointer(&written)),
	)
	if r1 == 0 {
		return int(written), err
	}
	return int(written), nil
}

func (s *spoolerConn) Read(p []byte) (int, error) {
	// Обычно чтение из принтера через спулер не используется
	return 0, fmt.Errorf("read not supported for Windows spooler connection")
}

func (s *spoolerConn) Close() error {
	procEndPagePrinter.Call(uintptr(s.hPrinter))
	procEndDocPrinter.Call(uintptr(s.hPrinter))
	r1, _, err := procClosePrinter.Call(uintptr(s.hPrinter))
	if r1 == 0 {
		return err
	}
	return nil
}

// OpenSpooler opens a RAW document on a Windows print queue. The spooler
// cannot report status, so PollStatus returns a read error.
func OpenSpooler(printerName string) (Transport, error) {
	var hPrinter windows.Handle
	pname, _ := windows.UTF16PtrFromString(printerName)
	r1, _, err := procOpenPrinter.Call(
		uintptr(unsafe.Pointer(pname)),
		uintptr(unsafe.Pointer(&hPrinter)),
		0,
	)
	if r1 == 0 {
		return nil, &TransportError{Op: "open", Port: printerName, Err: err}
	}

	// DOC_INFO_1
	docName, _ := windows.UTF16PtrFromString("escpos-label raster")
	dataType, _ := windows.UTF16PtrFromString("RAW")
	di := docInfo1{
		pDocName:    docName,
		pOutputFile: nil,
		pDatatype:   dataType,
	}

	r1, _, err = procStartDocPrinter.Call(
		uintptr(hPrinter),
		1,
		uintptr(unsafe.Pointer(&di)),
	)
	if r1 == 0 {
		procClosePrinter.Call(uintptr(hPrinter))
		return nil, &TransportError{Op: "open", Port: printerName, Err: fmt.Errorf("StartDocPrinter: %w", err)}
	}

	procStartPagePrinter.Call(uintptr(hPrinter))

	return &spoolerConn{hPrinter: hPrinter}, nil
}

// --- WinAPI binding ---
var (
	modwinspool          = windows.NewLazySystemDLL("winspool.drv")
	procOpenPrinter      = modwinspool.NewProc("OpenPrinterW")
	procClosePrinter     = modwinspool.NewProc("ClosePrinter")
	procStartDocPrinter  = modwinspool.NewProc("StartDocPrinterW")
	procEndDocPrinter    = modwinspool.NewProc("EndDocPrinter")
	procStartPagePrinter = modwinspool.NewProc("StartPagePrinter")
	procEndPagePrinter   = modwinspool.NewProc("EndPagePrinter")
	procWritePrinter     = modwinspool.NewProc("WritePrinter")
)

type docInfo1 struct {
	pDocName    *uint16
	pOutputFile *uint16
	pDatatype   *uint16
}

// SpoolerOpener returns an Opener for Session.Open.
func SpoolerOpener(printerName string) Opener {
	return func() (Transport, string, error) {
		t, err := OpenSpooler(printerName)
		return t, printerName, err
	}
}
