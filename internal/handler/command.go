package handler

import (
	"strconv"
	"strings"

	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
)

// Admin flight-time management is gated on a host-level node, not the
// per-player flight prefix.
const permAdminFlightTime = "admin.flighttime"

// Command message keys.
const (
	msgCmdRemaining     = "islandfly.commands.flighttime.remaining"
	msgCmdSyntax        = "islandfly.commands.flighttime.syntax"
	msgCmdInvalidPlayer = "islandfly.commands.flighttime.invalid-player"
	msgCmdInvalidTime   = "islandfly.commands.flighttime.invalid-time"
	msgCmdNoData        = "islandfly.commands.flighttime.no-flight-data"
	msgCmdSet           = "islandfly.commands.flighttime.set"
	msgCmdAdd           = "islandfly.commands.flighttime.add"
	msgCmdRemove        = "islandfly.commands.flighttime.remove"
	msgCmdGet           = "islandfly.commands.flighttime.get"
	msgCmdDelete        = "islandfly.commands.flighttime.delete"
	msgTimeChanged      = "islandfly.flight-time-changed"
)

// OnChatCommand routes slash commands owned by this addon. Unknown commands
// are ignored so other chat consumers can claim them.
func OnChatCommand(ev event.ChatCommand, deps *Deps) {
	p := deps.World.Player(ev.PlayerID)
	if p == nil {
		return
	}
	HandleCommand(p, ev.Text, deps)
}

// HandleCommand parses and executes a slash command. Reports whether the
// command belonged to this addon.
func HandleCommand(p *world.PlayerInfo, text string, deps *Deps) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "fly":
		cmdFly(p, deps)
	case "tempfly":
		cmdTempFly(p, deps)
	case "flighttime":
		cmdFlightTime(p, fields[1:], deps)
	default:
		return false
	}
	return true
}

// canExecuteToggle runs the shared gate checks for the fly/tempfly toggle
// commands. Spawn islands short-circuit: the flyspawn node alone decides.
func canExecuteToggle(p *world.PlayerInfo, deniedKey string, deps *Deps) bool {
	if !deps.Checker.InManagedWorld(p) {
		deps.Messages.Send(p, msgWrongWorld)
		return false
	}
	island := deps.World.IslandAt(p.Loc)
	if island == nil {
		return false
	}
	if island.Spawn && deps.Checker.CanFlySpawn(p) {
		return true
	}
	if !island.IsAllowed(p, world.FlagFlyProtection) && !deps.Checker.CanBypassFly(p) {
		deps.Messages.Send(p, deniedKey)
		return false
	}
	if !deps.Config.Flight.AllowCommandOutsideProtectionRange && !island.InProtectionRange(p.Loc) {
		deps.Messages.Send(p, msgOutsideProtection)
		return false
	}
	if !deps.Checker.CanFlyIslandLevel(island) {
		deps.Messages.Send(p, msgMinLevelAlert,
			"[number]", strconv.FormatInt(deps.Config.Flight.FlyMinLevel, 10))
		return false
	}
	return true
}

func cmdFly(p *world.PlayerInfo, deps *Deps) {
	if !deps.Checker.CanUseFly(p) {
		deps.Messages.Send(p, msgNoPermission)
		return
	}
	if !canExecuteToggle(p, msgNotAllowedFly, deps) {
		return
	}
	if p.AllowFlight {
		p.Flying = false
		p.AllowFlight = false
		deps.Messages.Send(p, msgDisableFly)
		return
	}
	p.AllowFlight = true
	deps.Messages.Send(p, msgEnableFly)
}

func cmdTempFly(p *world.PlayerInfo, deps *Deps) {
	if !deps.Checker.CanUseTempFly(p) {
		deps.Messages.Send(p, msgNoPermission)
		return
	}
	if !canExecuteToggle(p, msgIslandNotAllowed, deps) {
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	if deps.Ledger.IsTracked(p.ID) {
		if err := deps.Ledger.StopTracking(ctx, p.ID); err != nil {
			deps.Log.Error("stop temp flight",
				zap.String("player", p.Name), zap.Error(err))
			deps.Messages.Send(p, msgCommandError)
			return
		}
		p.Flying = false
		p.AllowFlight = false
		deps.Messages.Send(p, msgDisableFly)
		return
	}

	rec, err := deps.Ledger.Record(ctx, p.ID)
	if err != nil {
		deps.Log.Error("load flight record",
			zap.String("player", p.Name), zap.Error(err))
		deps.Messages.Send(p, msgCommandError)
		return
	}
	if rec == nil || rec.Seconds == 0 {
		deps.Messages.Send(p, msgNoTimeLeft)
		return
	}
	if err := deps.Ledger.StartTracking(ctx, p.ID); err != nil {
		deps.Log.Error("start temp flight",
			zap.String("player", p.Name), zap.Error(err))
		deps.Messages.Send(p, msgCommandError)
		return
	}
	p.AllowFlight = true
	deps.Messages.Send(p, msgEnableFly)
}

// cmdFlightTime handles /flighttime. With no arguments any player may view
// their own remaining time; the subcommands are admin-only.
func cmdFlightTime(p *world.PlayerInfo, args []string, deps *Deps) {
	if len(args) == 0 {
		ctx, cancel := opCtx()
		defer cancel()
		rec, err := deps.Ledger.Record(ctx, p.ID)
		if err != nil {
			deps.Log.Error("load flight record",
				zap.String("player", p.Name), zap.Error(err))
			deps.Messages.Send(p, msgCommandError)
			return
		}
		secs := 0
		if rec != nil {
			secs = rec.Seconds
		}
		deps.Messages.Send(p, msgCmdRemaining, "[number]", strconv.Itoa(secs))
		return
	}

	if !p.HasPermission(permAdminFlightTime) {
		deps.Messages.Send(p, msgNoPermission)
		return
	}

	sub := strings.ToLower(args[0])
	switch sub {
	case "set", "add", "remove":
		if len(args) != 3 {
			deps.Messages.Send(p, msgCmdSyntax)
			return
		}
		flightTimeMutate(p, sub, args[1], args[2], deps)
	case "get", "delete":
		if len(args) != 2 {
			deps.Messages.Send(p, msgCmdSyntax)
			return
		}
		flightTimeQuery(p, sub, args[1], deps)
	default:
		deps.Messages.Send(p, msgCmdSyntax)
	}
}

func flightTimeMutate(p *world.PlayerInfo, sub, targetName, rawSecs string, deps *Deps) {
	target := deps.World.PlayerByName(targetName)
	if target == nil {
		deps.Messages.Send(p, msgCmdInvalidPlayer)
		return
	}
	secs, err := strconv.Atoi(rawSecs)
	if err != nil || secs < 0 {
		deps.Messages.Send(p, msgCmdInvalidTime)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	var (
		total  int
		okKey  string
		mutErr error
	)
	switch sub {
	case "set":
		total, mutErr = deps.Ledger.SetSeconds(ctx, target.ID, secs)
		okKey = msgCmdSet
	case "add":
		total, mutErr = deps.Ledger.AddSeconds(ctx, target.ID, secs)
		okKey = msgCmdAdd
	case "remove":
		total, mutErr = deps.Ledger.RemoveSeconds(ctx, target.ID, secs)
		okKey = msgCmdRemove
	}
	if mutErr != nil {
		deps.Log.Error("flight time "+sub,
			zap.String("target", target.Name), zap.Error(mutErr))
		deps.Messages.Send(p, msgCommandError)
		return
	}
	deps.Messages.Send(p, okKey,
		"[player]", target.Name, "[number]", strconv.Itoa(total))
	deps.Messages.Send(target, msgTimeChanged, "[number]", strconv.Itoa(total))
}

func flightTimeQuery(p *world.PlayerInfo, sub, targetName string, deps *Deps) {
	target := deps.World.PlayerByName(targetName)
	if target == nil {
		deps.Messages.Send(p, msgCmdInvalidPlayer)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	switch sub {
	case "get":
		rec, err := deps.Ledger.Record(ctx, target.ID)
		if err != nil {
			deps.Log.Error("flight time get",
				zap.String("target", target.Name), zap.Error(err))
			deps.Messages.Send(p, msgCommandError)
			return
		}
		if rec == nil {
			deps.Messages.Send(p, msgCmdNoData, "[player]", target.Name)
			return
		}
		deps.Messages.Send(p, msgCmdGet,
			"[player]", target.Name, "[number]", strconv.Itoa(rec.Seconds))
	case "delete":
		if _, err := deps.Ledger.DeleteRecord(ctx, target.ID); err != nil {
			deps.Log.Error("flight time delete",
				zap.String("target", target.Name), zap.Error(err))
			deps.Messages.Send(p, msgCommandError)
			return
		}
		deps.Messages.Send(p, msgCmdDelete, "[player]", target.Name)
	}
}
