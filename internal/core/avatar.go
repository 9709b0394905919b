package core

// Avatar is one of the fixed personas a profile can pick.
type Avatar struct {
	ID    string
	Emoji string
	Tint  string
}

var avatars = []Avatar{
	{ID: "default", Emoji: "", Tint: "indigo-purple"},
	{ID: "gamer", Emoji: "😎", Tint: "yellow-orange"},
	{ID: "tech", Emoji: "👨‍💻", Tint: "blue-cyan"},
	{ID: "girl", Emoji: "👩‍🚀", Tint: "pink-rose"},
	{ID: "ninja", Emoji: "🥷", Tint: "slate"},
	{ID: "king", Emoji: "👑", Tint: "amber-yellow"},
	{ID: "robot", Emoji: "🤖", Tint: "emerald-teal"},
	{ID: "cat", Emoji: "😼", Tint: "purple-indigo"},
	{ID: "alien", Emoji: "👽", Tint: "green-emerald"},
	{ID: "fire", Emoji: "🔥", Tint: "red-orange"},
}

// Avatars returns the selectable persona set in display order.
func Avatars() []Avatar {
	out := make([]Avatar, len(avatars))
	copy(out, avatars)
	return out
}

// AvatarByID finds a persona, falling back to the default for unknown IDs.
func AvatarByID(id string) Avatar {
	for _, a := range avatars {
		if a.ID == id {
			return a
		}
	}
	return avatars[0]
}

// IsValidAvatar reports whether id names one of the fixed personas.
func IsValidAvatar(id string) bool {
	for _, a := range avatars {
		if a.ID == id {
			return true
		}
	}
	return false
}
