package device

import (
	"testing"

	"github.com/project-machine/bhyverun/internal/pciaddr"
)

func ptr[T any](v T) *T { return &v }

func TestVirtioNetArg(t *testing.T) {
	v := VirtioNet{Backend: "tap", Name: "tap0", Mtu: ptr(uint32(1500)), Mac: ptr("00:11:22:33:44:55")}
	want := "virtio-net,tap0,type=tap,mtu=1500,mac=00:11:22:33:44:55"
	if got := v.AsHypervisorArg(); got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestVirtioBlkArg(t *testing.T) {
	cases := []struct {
		blk  VirtioBlk
		want string
	}{
		{VirtioBlk{Path: "/tmp/img"}, "virtio-blk,/tmp/img"},
		{VirtioBlk{Path: "/tmp/img", Direct: true, Nocache: true, Ro: true, Nodelete: true},
			"virtio-blk,/tmp/img,direct,nocache,ro,nodelete"},
		{VirtioBlk{Path: "/tmp/img", LogicalSectorSize: ptr(uint32(512))},
			"virtio-blk,/tmp/img,sectorsize=512"},
		{VirtioBlk{Path: "/tmp/img", LogicalSectorSize: ptr(uint32(512)), PhysicalSectorSize: ptr(uint32(4096))},
			"virtio-blk,/tmp/img,sectorsize=512/4096"},
	}
	for _, c := range cases {
		if got := c.blk.AsHypervisorArg(); got != c.want {
			t.Errorf("AsHypervisorArg() = %q, want %q", got, c.want)
		}
	}
}

func TestAhciArg(t *testing.T) {
	hd := AhciHd{AhciFrontend{Path: "/tmp/disk.img", Ser: ptr("abc123")}}
	if got, want := hd.AsHypervisorArg(), "ahci-hd,/tmp/disk.img,ser=abc123"; got != want {
		t.Errorf("AhciHd.AsHypervisorArg() = %q, want %q", got, want)
	}
	cd := AhciCd{AhciFrontend{Path: "/tmp/boot.iso"}}
	if got, want := cd.AsHypervisorArg(), "ahci-cd,/tmp/boot.iso"; got != want {
		t.Errorf("AhciCd.AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestVirtioConsoleArg(t *testing.T) {
	vc := VirtioConsole{Ports: []string{"/dev/vtcon/t.0", "/dev/vtcon/t.1"}}
	want := "virtio-console,port1=/dev/vtcon/t.0,port2=/dev/vtcon/t.1"
	if got := vc.AsHypervisorArg(); got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
	objs := vc.EphemeralObjects()
	if len(objs) != 2 {
		t.Fatalf("EphemeralObjects() returned %d objects, want 2", len(objs))
	}
	if objs[0].Kind != ResourceNode || objs[0].Path != "/dev/vtcon/t.0" {
		t.Errorf("EphemeralObjects()[0] = %+v, want Node /dev/vtcon/t.0", objs[0])
	}
}

func TestNvmeArg(t *testing.T) {
	ram := Nvme{Ram: ptr(uint64(256))}
	if got, want := ram.AsHypervisorArg(), "nvme,ram=256"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}

	path := Nvme{Path: ptr("/tmp/nvm.img"), Qsz: ptr(uint32(4))}
	if got, want := path.AsHypervisorArg(), "nvme,/tmp/nvm.img,qsz=4"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestPciPassthruArg(t *testing.T) {
	slot := pciaddr.Slot{Bus: 1, Slot: 1, Func: 1}
	p := PciPassthru{Src: slot}
	if got, want := p.AsHypervisorArg(), "passthru,1/1/1"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
	p2 := PciPassthru{Src: slot, Rom: ptr("1.fd")}
	if got, want := p2.AsHypervisorArg(), "passthru,1/1/1,rom=1.fd"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestResolvePciPassthruWithSrc(t *testing.T) {
	slot := pciaddr.Slot{Bus: 1, Slot: 1, Func: 1}
	got, err := ResolvePciPassthru(&slot, nil, nil, nil)
	if err != nil {
		t.Fatalf("ResolvePciPassthru returned error: %v", err)
	}
	if got.Src != slot {
		t.Errorf("ResolvePciPassthru().Src = %+v, want %+v", got.Src, slot)
	}
}

func TestResolvePciPassthruMissingSelectors(t *testing.T) {
	if _, err := ResolvePciPassthru(nil, nil, nil, nil); err == nil {
		t.Error("ResolvePciPassthru(nil, nil, nil, nil) expected error, got nil")
	}
}

func TestResolvePciPassthruMalformedHex(t *testing.T) {
	vendor := "0x12"
	device := "0x1234abcd"
	if _, err := ResolvePciPassthru(nil, &vendor, &device, nil); err == nil {
		t.Error("ResolvePciPassthru with short vendor hex expected error, got nil")
	}
}

func TestFramebufferArg(t *testing.T) {
	f := Framebuffer{}
	if got, want := f.AsHypervisorArg(), "fbuf,tcp=0.0.0.0:5900"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
	f2 := Framebuffer{Host: ptr("127.0.0.1"), Port: ptr(uint16(5901)), W: ptr(uint32(1024)), H: ptr(uint32(768)), Wait: true}
	want := "fbuf,tcp=127.0.0.1:5901,w=1024,h=768,wait"
	if got := f2.AsHypervisorArg(); got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestXhciAndRawArg(t *testing.T) {
	if got, want := (Xhci{}).AsHypervisorArg(), "xhci,tablet"; got != want {
		t.Errorf("Xhci.AsHypervisorArg() = %q, want %q", got, want)
	}
	if got, want := (Raw{Arg: "some,raw,arg"}).AsHypervisorArg(), "some,raw,arg"; got != want {
		t.Errorf("Raw.AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestLpcBootromArg(t *testing.T) {
	b := LpcBootrom{Rom: "/fw/BHYVE_UEFI.fd"}
	if got, want := b.AsHypervisorArg(), "bootrom,/fw/BHYVE_UEFI.fd"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
	b2 := LpcBootrom{Rom: "/fw/BHYVE_UEFI.fd", Varfile: ptr("/fw/vars.fd")}
	if got, want := b2.AsHypervisorArg(), "bootrom,/fw/BHYVE_UEFI.fd,/fw/vars.fd"; got != want {
		t.Errorf("AsHypervisorArg() = %q, want %q", got, want)
	}
}

func TestLpcComIdentifierAndValidation(t *testing.T) {
	good := LpcCom{N: 1, Device: "stdio"}
	if good.Identifier() != "com1" {
		t.Errorf("Identifier() = %q, want com1", good.Identifier())
	}
	if _, ok := good.Preconditions().Check(); !ok {
		t.Error("valid com1 precondition unexpectedly failed")
	}

	bad := LpcCom{N: 9, Device: "garbage"}
	if _, ok := bad.Preconditions().Check(); ok {
		t.Error("invalid com device expected precondition failure")
	}
}

func TestLpcDeviceBusConstraint(t *testing.T) {
	d := LpcDevice{Slot: pciaddr.Slot{Bus: 1, Slot: 31, Func: 0}, Variant: LpcTestDev{}}
	if _, ok := d.Preconditions().Check(); ok {
		t.Error("LPC device on non-zero bus expected precondition failure")
	}
}
