package printer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

type usbConn struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint

	readTimeout time.Duration
}

// OpenUSB claims the first interface of the device and talks to its bulk
// endpoints. Status reads need an IN endpoint; without one PollStatus
// returns a read error.
func OpenUSB(vendorID, productID gousb.ID) (Transport, error) {
	name := fmt.Sprintf("usb:%s:%s", vendorID, productID)
	fail := func(err error) (Transport, error) {
		return nil, &TransportError{Op: "open", Port: name, Err: err}
	}

	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil {
		ctx.Close()
		return fail(err)
	}
	if dev == nil {
		ctx.Close()
		return fail(fmt.Errorf("device not found"))
	}

	dev.SetAutoDetach(true)
	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return fail(err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return fail(err)
	}

	outEp, err := intf.OutEndpoint(0x01)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return fail(err)
	}

	inEp, err := intf.InEndpoint(1)
	if err != nil {
		inEp = nil
	}

	return &usbConn{ctx: ctx, dev: dev, cfg: cfg, intf: intf, out: outEp, in: inEp}, nil
}

// USBOpener returns an Opener for Session.Open.
func USBOpener(vendorID, productID gousb.ID) Opener {
	return func() (Transport, string, error) {
		t, err := OpenUSB(vendorID, productID)
		return t, fmt.Sprintf("usb:%s:%s", vendorID, productID), err
	}
}

// Read waits at most the read timeout; an expired wait returns (n, nil)
// like a serial port does.
func (u *usbConn) Read(p []byte) (int, error) {
	if u.in == nil {
		return 0, fmt.Errorf("USB read not supported")
	}
	if u.readTimeout <= 0 {
		return u.in.Read(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), u.readTimeout)
	defer cancel()
	n, err := u.in.ReadContext(ctx, p)
	if err != nil && ctx.Err() != nil {
		return n, nil
	}
	return n, err
}

func (u *usbConn) SetReadTimeout(t time.Duration) error {
	u.readTimeout = t
	return nil
}

func (u *usbConn) Write(p []byte) (int, error) {
	return u.out.Write(p)
}

func (u *usbConn) Close() error {
	if u.intf != nil {
		u.intf.Close()
	}
	if u.cfg != nil {
		u.cfg.Close()
	}
	if u.dev != nil {
		u.dev.Close()
	}
	if u.ctx != nil {
		u.ctx.Close()
	}
	return nil
}
