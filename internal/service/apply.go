package service

import (
	"strconv"

	"furnisher/internal/model"
	"furnisher/internal/utils"
)

// ApplyOptions controls how commands resolve rooms
type ApplyOptions struct {
	// Rooms of the current plan, used to resolve generic room mentions
	Rooms []string
	// Initial is set on the first turn: an add for a type already planned
	// then only ensures the quantity instead of incrementing it.
	Initial bool
}

// ApplyResult is the outcome of applying commands to a list of lines
type ApplyResult struct {
	Lines        []model.RequestedLine
	Changes      []model.ChangeRecord
	Touched      map[string]bool // line keys affected before or after a change
	RemovedRooms []string
	AddedRooms   []string
}

// ApplyCommands applies structural commands to lines in order. It is pure:
// the input slice is not modified.
func ApplyCommands(lines []model.RequestedLine, cmds []model.Command, opts ApplyOptions) ApplyResult {
	a := &applier{
		lines:   model.CloneLines(lines),
		opts:    opts,
		touched: make(map[string]bool),
	}
	if a.lines == nil {
		a.lines = []model.RequestedLine{}
	}
	for _, cmd := range cmds {
		a.apply(cmd)
	}
	return ApplyResult{
		Lines:        a.lines,
		Changes:      a.changes,
		Touched:      a.touched,
		RemovedRooms: a.removedRooms,
		AddedRooms:   a.addedRooms,
	}
}

type applier struct {
	lines        []model.RequestedLine
	opts         ApplyOptions
	changes      []model.ChangeRecord
	touched      map[string]bool
	removedRooms []string
	addedRooms   []string
}

func (a *applier) rooms() []string {
	rooms := append([]string(nil), a.opts.Rooms...)
	return dedupeStrings(append(rooms, roomsOfLines(a.lines)...))
}

func (a *applier) record(t model.ItemType, room string, before, after model.LineSignature, reason model.ChangeReason) {
	a.changes = append(a.changes, model.ChangeRecord{
		Type:                t,
		Room:                room,
		LineSignatureBefore: before,
		LineSignatureAfter:  after,
		Reason:              reason,
	})
}

func (a *applier) touch(keys ...string) {
	for _, k := range keys {
		a.touched[k] = true
	}
}

// find returns the index of the first line matching the command target, or -1.
// An exact subtype match wins over a line that carries no subtype.
func (a *applier) find(cmd model.Command) int {
	room := resolveRoomName(cmd.Room, a.rooms())
	fallback := -1
	for i, l := range a.lines {
		if l.Type != cmd.Type || !roomMatches(l.Room, room) {
			continue
		}
		if cmd.Subtype == "" || l.Specs.Subtype == cmd.Subtype {
			return i
		}
		if l.Specs.Subtype == "" && fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

func roomMatches(lineRoom, wanted string) bool {
	if wanted == "" || lineRoom == wanted {
		return true
	}
	return wanted == model.RoomBedroom && model.RoomKindOf(lineRoom) == model.RoomBedroom
}

// targetRoom is the room a new line for cmd goes into
func (a *applier) targetRoom(cmd model.Command) string {
	rooms := a.rooms()
	if cmd.Room != "" {
		return resolveRoomName(cmd.Room, rooms)
	}
	return roomForKind(defaultRoomKind(cmd.Type, cmd.Subtype), rooms)
}

func (a *applier) apply(cmd model.Command) {
	if cmd.WholeRoom {
		a.removeRoom(cmd.Room)
		return
	}
	if _, ok := model.ParseItemType(string(cmd.Type)); !ok {
		return
	}

	switch cmd.Verb {
	case model.VerbReplace:
		a.replace(cmd)
	case model.VerbRemove:
		a.remove(cmd)
	case model.VerbSetQty:
		a.setQty(cmd)
	case model.VerbIncrease:
		a.changeQty(cmd, max(cmd.Quantity, 1))
	case model.VerbDecrease:
		a.changeQty(cmd, -max(cmd.Quantity, 1))
	case model.VerbUpdateAttr:
		a.updateAttr(cmd)
	case model.VerbAdd:
		a.add(cmd)
	}
}

func (a *applier) removeRoom(room string) {
	room = resolveRoomName(room, a.rooms())
	kept := a.lines[:0]
	removed := false
	for _, l := range a.lines {
		if l.Room == room {
			a.touch(l.Key())
			a.record(l.Type, l.Room, l.Signature(), "", model.ChangeRemoved)
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	a.lines = kept
	if removed || containsString(a.opts.Rooms, room) {
		a.removedRooms = append(a.removedRooms, room)
	}
}

func (a *applier) replace(cmd model.Command) {
	i := a.find(cmd)
	if i < 0 {
		if cmd.ItemID != nil {
			a.add(model.Command{Verb: model.VerbAdd, Type: cmd.Type, Subtype: cmd.Subtype, Room: cmd.Room, Quantity: 1, ItemID: cmd.ItemID})
		}
		return
	}
	line := a.lines[i].Clone()
	if cmd.ItemID != nil {
		line = line.WithPreferredItem(*cmd.ItemID)
	} else {
		line.PreferredItemID = nil
	}
	a.lines[i] = line
	a.touch(line.Key())
	a.record(line.Type, line.Room, line.Signature(), line.Signature(), model.ChangeReplaced)
}

func (a *applier) remove(cmd model.Command) {
	i := a.find(cmd)
	if i < 0 {
		return
	}
	line := a.lines[i]
	if cmd.Quantity > 0 && line.Quantity > cmd.Quantity {
		a.lines[i] = line.WithQuantity(line.Quantity - cmd.Quantity)
		a.touch(line.Key())
		a.record(line.Type, line.Room, line.Signature(), line.Signature(), model.ChangeQty)
		return
	}
	a.lines = append(a.lines[:i], a.lines[i+1:]...)
	a.touch(line.Key())
	a.record(line.Type, line.Room, line.Signature(), "", model.ChangeRemoved)
}

func (a *applier) setQty(cmd model.Command) {
	if cmd.Quantity <= 0 {
		a.remove(model.Command{Verb: model.VerbRemove, Type: cmd.Type, Subtype: cmd.Subtype, Room: cmd.Room})
		return
	}
	i := a.find(cmd)
	if i < 0 {
		a.appendLine(cmd, cmd.Quantity)
		return
	}
	line := a.lines[i]
	if line.Quantity == cmd.Quantity {
		return
	}
	a.lines[i] = line.WithQuantity(cmd.Quantity)
	a.touch(line.Key())
	a.record(line.Type, line.Room, line.Signature(), line.Signature(), model.ChangeQty)
}

func (a *applier) changeQty(cmd model.Command, by int) {
	i := a.find(cmd)
	if i < 0 {
		if by > 0 {
			a.appendLine(cmd, by)
		}
		return
	}
	line := a.lines[i]
	next := line.Quantity + by
	if next <= 0 {
		a.remove(model.Command{Verb: model.VerbRemove, Type: line.Type, Subtype: line.Specs.Subtype, Room: line.Room})
		return
	}
	a.lines[i] = line.WithQuantity(next)
	a.touch(line.Key())
	a.record(line.Type, line.Room, line.Signature(), line.Signature(), model.ChangeQty)
}

func (a *applier) updateAttr(cmd model.Command) {
	i := a.find(cmd)
	if i < 0 {
		add := cmd
		add.Specs = model.Specs{Subtype: cmd.Subtype}
		setAttr(&add.Specs, cmd.Attr, cmd.Value)
		a.appendLine(add, 1)
		return
	}

	before := a.lines[i]
	after := before.Clone()
	if !setAttr(&after.Specs, cmd.Attr, cmd.Value) {
		return
	}
	after.PreferredItemID = nil
	a.lines[i] = after
	a.touch(before.Key(), after.Key())
	a.record(after.Type, after.Room, before.Signature(), after.Signature(), model.ChangeModified)
}

// setAttr writes one attribute and reports whether the specs changed
func setAttr(specs *model.Specs, attr, value string) bool {
	switch attr {
	case "material":
		if class := utils.NormalizeMaterial(value); class != "" {
			value = class
		}
		if specs.Material == value {
			return false
		}
		specs.Material = value
	case "seater":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || specs.SeaterCount == n {
			return false
		}
		specs.SeaterCount = n
	case "size":
		if specs.Size == value {
			return false
		}
		specs.Size = value
	case "shape":
		if specs.Shape == value {
			return false
		}
		specs.Shape = value
	case "subtype":
		if specs.Subtype == value {
			return false
		}
		specs.Subtype = value
	default:
		return false
	}
	return true
}

func (a *applier) add(cmd model.Command) {
	n := max(cmd.Quantity, 1)
	if cmd.ItemID != nil {
		a.appendLine(cmd, n)
		return
	}
	i := a.find(cmd)
	if i < 0 {
		a.appendLine(cmd, n)
		return
	}
	line := a.lines[i]
	next := line.Quantity + n
	if a.opts.Initial {
		next = max(line.Quantity, n)
	}
	if next == line.Quantity {
		return
	}
	a.lines[i] = line.WithQuantity(next)
	a.touch(line.Key())
	a.record(line.Type, line.Room, line.Signature(), line.Signature(), model.ChangeQty)
}

// appendLine adds a new user line. Id-qualified lines that collide with an
// existing room and signature get the next ordinal so both survive.
func (a *applier) appendLine(cmd model.Command, qty int) {
	room := a.targetRoom(cmd)
	specs := cmd.Specs
	if specs.Subtype == "" {
		specs.Subtype = cmd.Subtype
	}
	line := model.RequestedLine{
		Type:     cmd.Type,
		Quantity: qty,
		Room:     room,
		Specs:    specs,
		Origin:   model.OriginUser,
	}
	if cmd.ItemID != nil {
		line = line.WithPreferredItem(*cmd.ItemID)
	}

	sig := line.Signature()
	highest := -1
	for _, l := range a.lines {
		if l.Room == room && l.Signature() == sig && l.Ordinal > highest {
			highest = l.Ordinal
		}
	}
	if highest >= 0 {
		line.Ordinal = highest + 1
	}

	if !containsString(a.rooms(), room) {
		a.addedRooms = append(a.addedRooms, room)
	}
	a.lines = append(a.lines, line)
	a.touch(line.Key())
	a.record(line.Type, line.Room, "", sig, model.ChangeAdded)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
