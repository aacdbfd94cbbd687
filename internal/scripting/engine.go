// Package scripting runs operator-provided Lua gate hooks. Scripts in
// <scripts-dir>/gates may define global functions `can_enable(ctx)` and
// `must_remove(ctx)`; when present they are consulted as the final gate of
// the corresponding decision. Script errors fail open.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skyisle/islandfly/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only
// (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all gate scripts from the given
// directory. A missing directory is fine (no hooks defined).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(filepath.Join(scriptsDir, "gates")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load gate scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// CanEnable calls the Lua can_enable hook. Implements flight.GateHooks.
func (e *Engine) CanEnable(p *world.PlayerInfo, island *world.IslandInfo) (verdict, defined bool) {
	return e.callGate("can_enable", p, island)
}

// MustRemove calls the Lua must_remove hook. Implements flight.GateHooks.
func (e *Engine) MustRemove(p *world.PlayerInfo, island *world.IslandInfo) (verdict, defined bool) {
	return e.callGate("must_remove", p, island)
}

func (e *Engine) callGate(name string, p *world.PlayerInfo, island *world.IslandInfo) (verdict, defined bool) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return false, false
	}

	ctx := e.gateContext(p, island)
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, ctx); err != nil {
		e.log.Warn("gate script error", zap.String("hook", name), zap.Error(err))
		return false, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(ret), true
}

// gateContext packs the decision inputs into a Lua table.
func (e *Engine) gateContext(p *world.PlayerInfo, island *world.IslandInfo) *lua.LTable {
	player := e.vm.NewTable()
	player.RawSetString("id", lua.LString(p.ID.String()))
	player.RawSetString("name", lua.LString(p.Name))
	player.RawSetString("op", lua.LBool(p.Op))
	player.RawSetString("mode", lua.LString(p.Mode.String()))
	player.RawSetString("flying", lua.LBool(p.Flying))
	player.RawSetString("world", lua.LString(p.Loc.World))

	tbl := e.vm.NewTable()
	tbl.RawSetString("player", player)

	if island != nil {
		isl := e.vm.NewTable()
		isl.RawSetString("id", lua.LString(island.ID))
		isl.RawSetString("owner", lua.LString(island.Owner.String()))
		isl.RawSetString("spawn", lua.LBool(island.Spawn))
		isl.RawSetString("rank", lua.LNumber(island.Rank(p.ID)))
		tbl.RawSetString("island", isl)
	}
	return tbl
}
