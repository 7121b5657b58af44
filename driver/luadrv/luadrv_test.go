package luadrv

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
)

const player = `
strings = { [1001] = "spinning" }
position = 0
closed = false

function open(device)
  if device.element == "missing.wav" then
    return mci.ERR_CUSTOM_BASE + 7
  end
  mci.log("opened " .. device.type)
  return 0
end

function send(msg, p1, p2)
  if msg == mci.msg.play then
    if bit_set(p1, mci.TO) then
      position = mem.slot(p2, 2)
    end
    return 0
  elseif msg == mci.msg.status then
    mem.setslot(p2, 1, position)
    return mci.RETURN_INTEGER
  elseif msg == mci.msg.info then
    local truncated = mem.writestring(mem.slot(p2, 1), mem.slot(p2, 2), "Lua Player")
    if truncated then return 1 end
    return 0
  elseif msg == mci.msg.spin then
    error("spin is broken")
  end
  return mci.ERR_UNSUPPORTED
end

function bit_set(v, f)
  return math.floor(v / f) % 2 == 1
end

function close()
  closed = true
end
`

func openPlayer(t *testing.T, p driver.OpenParams) *Driver {
	t.Helper()
	s, err := Compile("player.lua", player)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	d, err := Factory(s)(context.Background(), p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close(context.Background()) })
	return d.(*Driver)
}

func TestDriver_Send(t *testing.T) {
	d := openPlayer(t, driver.OpenParams{DeviceType: "waveaudio", DeviceID: 1})
	if d.Convention() != driver.Flat {
		t.Fatalf("Convention() = %v", d.Convention())
	}

	mem := memory.NewArena(0)
	block, err := mem.Alloc(16*4, 4)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	ctx := context.Background()

	if err := mem.WriteU32(block+8, 4500); err != nil {
		t.Fatal(err)
	}
	if code := d.Send(ctx, driver.Request{Mem: mem, Message: mmsys.MsgPlay, P1: mmsys.FlagTo, P2: block}); code != 0 {
		t.Fatalf("play = %d", code)
	}

	code := d.Send(ctx, driver.Request{Mem: mem, Message: mmsys.MsgStatus, P1: mmsys.StatusItem, P2: block})
	if mmsys.Tag(code) != mmsys.ReturnInteger || mmsys.StripTag(code) != 0 {
		t.Fatalf("status = %#x", code)
	}
	pos, _ := mem.ReadU32(block + 4)
	if pos != 4500 {
		t.Errorf("position = %d, want 4500", pos)
	}

	if code := d.Send(ctx, driver.Request{Mem: mem, Message: mmsys.MsgStop}); code != errors.CodeUnsupportedFunction {
		t.Errorf("stop = %d, want unsupported", code)
	}
}

func TestDriver_WriteString(t *testing.T) {
	d := openPlayer(t, driver.OpenParams{DeviceType: "waveaudio"})
	mem := memory.NewArena(0)
	block, _ := mem.Alloc(16*4, 4)
	ctx := context.Background()

	tests := []struct {
		name string
		size uint32
		want string
		code uint32
	}{
		{"fits", 64, "Lua Player", 0},
		{"truncated", 4, "Lua", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, _ := mem.Alloc(tt.size, 1)
			mem.WriteU32(block+4, buf)
			mem.WriteU32(block+8, tt.size)
			if code := d.Send(ctx, driver.Request{Mem: mem, Message: mmsys.MsgInfo, P2: block}); code != tt.code {
				t.Errorf("info = %d, want %d", code, tt.code)
			}
			got, err := memory.ReadCString(mem, buf)
			if err != nil || got != tt.want {
				t.Errorf("buffer = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestDriver_ScriptErrorIsDriverInternal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	d := openPlayer(t, driver.OpenParams{DeviceType: "waveaudio"})
	code := d.Send(context.Background(), driver.Request{Mem: memory.NewArena(0), Message: mmsys.MsgSpin})
	if code != errors.CodeDriverInternal {
		t.Errorf("spin = %d, want driver internal", code)
	}
	if logs.FilterMessage("lua driver send failed").Len() != 1 {
		t.Errorf("expected a send failure warning, got %v", logs.All())
	}
}

func TestDriver_Strings(t *testing.T) {
	d := openPlayer(t, driver.OpenParams{DeviceType: "cdaudio"})
	if s, ok := d.String(1001); !ok || s != "spinning" {
		t.Errorf("String(1001) = %q, %v", s, ok)
	}
	if _, ok := d.String(1002); ok {
		t.Error("String(1002) found")
	}
}

func TestDriver_Close(t *testing.T) {
	d := openPlayer(t, driver.OpenParams{DeviceType: "waveaudio"})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if code := d.Send(context.Background(), driver.Request{Message: mmsys.MsgPlay}); code != errors.CodeInvalidDeviceID {
		t.Errorf("send after close = %d", code)
	}
}

func TestFactory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		element string
		want    errors.Kind
		code    uint32
	}{
		{"syntax", "function send(", "", errors.KindCannotLoadDriver, 0},
		{"no send", "x = 1", "", errors.KindCannotLoadDriver, 0},
		{"runtime", "error('boom')", "", errors.KindCannotLoadDriver, 0},
		{"open refused", player, "missing.wav", errors.KindDriver, errors.CodeCustomDriverBase + 7},
		{"no os library", "os.exit(1)\nfunction send() end", "", errors.KindCannotLoadDriver, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.name, tt.src)
			if err == nil {
				_, err = Factory(s)(context.Background(), driver.OpenParams{DeviceType: "waveaudio", Element: tt.element})
			}
			if errors.KindOf(err) != tt.want {
				t.Fatalf("error = %v, want kind %s", err, tt.want)
			}
			if tt.code != 0 && errors.CodeOf(err) != tt.code {
				t.Errorf("CodeOf = %d, want %d", errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestFactory_CommandTable(t *testing.T) {
	s, err := Compile("player.lua", player)
	if err != nil {
		t.Fatal(err)
	}
	table := []byte{1, 2, 3}
	d, err := Factory(s, WithCommandTable(table))(context.Background(), driver.OpenParams{DeviceType: "vcr"})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close(context.Background())
	tp, ok := d.(driver.TableProvider)
	if !ok || len(tp.CommandTable()) != 3 {
		t.Errorf("CommandTable() not passed through")
	}
}
