// Package session implements the connection lifecycle, authentication state
// machine, per-player hydration, command dispatch, and broadcast cadence
// described in SPEC_FULL.md 4.8.
//
// Grounded on original_source/mimas-server/server.rs in its entirety:
// AuthState, Player/KvWaitingPlayer, handle_auth_msgs, handle_command,
// handle_dig, handle_inv_move_or_swap, handle_craft, tick/run_loop.
// Restructured onto the teacher's network/broadcast.go + network/protocol.go
// shapes: goroutine-per-client reading frames into a buffered channel the
// main loop drains non-blockingly, instead of the reference's try_recv.
package session

import "github.com/est31/mimas-go/world"

// Wire tags, matching SPEC_FULL.md 6.1 exactly.
const (
	TagLogIn           = "LogIn"
	TagSendHash        = "SendHash"
	TagSendM1          = "SendM1"
	TagGetHashedBlobs  = "GetHashedBlobs"
	TagPlaceBlock      = "PlaceBlock"
	TagPlaceTree       = "PlaceTree"
	TagDig             = "Dig"
	TagSetPos          = "SetPos"
	TagInventorySwap   = "InventorySwap"
	TagCraft           = "Craft"
	TagInventorySelect = "InventorySelect"
	TagSetMode         = "SetMode"
	TagChat            = "Chat"

	TagHashEnrollment  = "HashEnrollment"
	TagHashParamsBpub  = "HashParamsBpub"
	TagLogInFail       = "LogInFail"
	TagGameParams      = "GameParams"
	TagHashedBlobs     = "HashedBlobs"
	TagPlayerPositions = "PlayerPositions"
	TagSetInventory    = "SetInventory"
	TagSetCraftInv     = "SetCraftInventory"
	TagSetModes        = "SetModes"
	TagChunkUpdated    = "ChunkUpdated"
)

// PlayerMode names a toggleable per-player slow-state flag, matching
// original_source/mimas-common/player.rs's PlayerMode enum.
type PlayerMode string

const (
	ModeFly    PlayerMode = "Fly"
	ModeNoclip PlayerMode = "Noclip"
	ModeFast   PlayerMode = "Fast"
)

// PlayerPosition is the wire and persisted shape of a player's location and
// look direction, matching original_source/mimas-common/map_storage.rs.
type PlayerPosition struct {
	X     float32 `toml:"x" json:"x"`
	Y     float32 `toml:"y" json:"y"`
	Z     float32 `toml:"z" json:"z"`
	Pitch float32 `toml:"pitch" json:"pitch"`
	Yaw   float32 `toml:"yaw" json:"yaw"`
}

// DefaultPlayerPosition is the world spawn point, matching the reference's
// PlayerPosition::default() and the /spawn chat command target.
func DefaultPlayerPosition() PlayerPosition {
	return PlayerPosition{X: 60, Y: 40, Z: 20, Pitch: 45, Yaw: 0}
}

// Pos returns the block-space position for chunk/area queries.
func (p PlayerPosition) Pos() world.Pos {
	return world.Pos{X: int64(p.X), Y: int64(p.Y), Z: int64(p.Z)}
}

// InventoryLocation names which inventory an InventoryPos slot belongs to,
// matching the {PlayerInv | CraftInv | WorldMeta(pos)} sum described in
// SPEC_FULL.md 4.8's InventorySwap entry.
type InventoryLocation int

const (
	LocationPlayerInv InventoryLocation = iota
	LocationCraftInv
	LocationWorldMeta
)

// InventoryPos names one slot: a location, its world position (only
// meaningful for LocationWorldMeta), and the slot index within it.
type InventoryPos struct {
	Location InventoryLocation `json:"location"`
	WorldPos world.Pos         `json:"world_pos,omitempty"`
	StackPos int                `json:"stack_pos"`
}

// IsWorldMeta reports whether p names a chest slot rather than a player or
// craft grid slot.
func (p InventoryPos) IsWorldMeta() bool {
	return p.Location == LocationWorldMeta
}

// --- Client -> Server payloads ---

type LogInMsg struct {
	Nick string `json:"nick"`
	APub []byte `json:"a_pub"`
}

type SendHashMsg struct {
	Salt []byte `json:"salt"`
	Hash []byte `json:"hash"`
}

type SendM1Msg struct {
	M1 []byte `json:"m1"`
}

type GetHashedBlobsMsg struct {
	Hashes []string `json:"hashes"`
}

type PlaceBlockMsg struct {
	Pos    world.Pos   `json:"pos"`
	SelIdx int         `json:"sel_idx"`
	Block  world.Block `json:"block"`
}

type PlaceTreeMsg struct {
	Pos    world.Pos   `json:"pos"`
	SelIdx int         `json:"sel_idx"`
	Block  world.Block `json:"block"`
}

type DigMsg struct {
	Pos world.Pos `json:"pos"`
}

type SetPosMsg struct {
	Pos PlayerPosition `json:"pos"`
}

type InventorySwapMsg struct {
	From        InventoryPos `json:"from"`
	To          InventoryPos `json:"to"`
	OnlyMoveOne bool         `json:"only_move_one"`
}

type InventorySelectMsg struct {
	// Index is nil for "no selection"; matches Option<usize> on the wire.
	Index *int `json:"index"`
}

type SetModeMsg struct {
	Mode    PlayerMode `json:"mode"`
	Enabled bool       `json:"enabled"`
}

type ChatMsg struct {
	Text string `json:"text"`
}

// --- Server -> Client payloads ---

type HashParamsBpubMsg struct {
	Salt []byte `json:"salt"`
	BPub []byte `json:"b_pub"`
}

type LogInFailMsg struct {
	Reason string `json:"reason"`
}

type HashedBlobPair struct {
	Hash string `json:"hash"`
	Blob []byte `json:"blob"`
}

type HashedBlobsMsg struct {
	Blobs []HashedBlobPair `json:"blobs"`
}

type PlayerPositionEntry struct {
	ID  world.PlayerID `json:"id"`
	Pos PlayerPosition `json:"pos"`
}

type PlayerPositionsMsg struct {
	OwnID     world.PlayerID        `json:"own_id"`
	Positions []PlayerPositionEntry `json:"positions"`
}

type SetInventoryMsg struct {
	Selection int                `json:"selection"`
	Stacks    []SerializedStack  `json:"stacks"`
}

// SerializedStack is the wire form of one inventory.Stack slot.
type SerializedStack struct {
	Block world.Block `json:"block"`
	Count uint16      `json:"count"`
}

type SetModesMsg struct {
	Modes []PlayerMode `json:"modes"`
}

type ChunkUpdatedMsg struct {
	Pos    world.ChunkPos `json:"pos"`
	Blocks []world.Block  `json:"blocks"`
}

type ChatOutMsg struct {
	Text string `json:"text"`
}

// WireBlockParams is the subset of gameparams.BlockParams a client needs
// to resolve names, draw style, and textures.
type WireBlockParams struct {
	Name          string `json:"name"`
	DrawStyle     int    `json:"draw_style"`
	TextureTop    string `json:"texture_top"`
	TextureSides  string `json:"texture_sides"`
	TextureBottom string `json:"texture_bottom"`
	Pointable     bool   `json:"pointable"`
	Placeable     bool   `json:"placeable"`
	Solid         bool   `json:"solid"`
	Climbable     bool   `json:"climbable"`
	InventorySize int    `json:"inventory_size"`
}

// GameParamsMsg is the wire form of the compiled parameter table sent once
// at login.
type GameParamsMsg struct {
	Blocks         []WireBlockParams `json:"blocks"`
	TextureDigests map[string]string `json:"texture_digests"`
}
