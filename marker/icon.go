package marker

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Icon identifies the image the client draws for a marker.
type Icon uint32

// Icons known to the client.
const (
	IconCheckmark Icon = iota
	IconQuestion
	IconExclamation
	IconStar
	IconCrossmark
	IconCross
	IconMouth
	IconSpear
	IconSword
	IconFlag
	IconLock
	IconBag
	IconSkull
	IconDollar
	IconRedUp
	IconRedDown
	IconRedRight
	IconRedLeft
	IconUp
	IconDown
)

var iconNames = [...]string{
	IconCheckmark:   "checkmark",
	IconQuestion:    "?",
	IconExclamation: "!",
	IconStar:        "star",
	IconCrossmark:   "crossmark",
	IconCross:       "cross",
	IconMouth:       "mouth",
	IconSpear:       "spear",
	IconSword:       "sword",
	IconFlag:        "flag",
	IconLock:        "lock",
	IconBag:         "bag",
	IconSkull:       "skull",
	IconDollar:      "$",
	IconRedUp:       "red up",
	IconRedDown:     "red down",
	IconRedRight:    "red right",
	IconRedLeft:     "red left",
	IconUp:          "up",
	IconDown:        "down",
}

var iconsByName = func() map[string]Icon {
	m := make(map[string]Icon, len(iconNames))
	for i, n := range iconNames {
		m[n] = Icon(i)
	}
	return m
}()

// Name returns the icon's name, or "" for an icon the client does not know.
func (i Icon) Name() string {
	if int(i) < len(iconNames) {
		return iconNames[i]
	}
	return ""
}

func (i Icon) String() string {
	if n := i.Name(); n != "" {
		return n
	}
	return "icon#" + strconv.FormatUint(uint64(i), 10)
}

// IconByName looks up a named icon.
func IconByName(name string) (Icon, bool) {
	i, ok := iconsByName[name]
	return i, ok
}

// MarshalJSON writes the icon name, or the bare number for unnamed icons,
// so that nothing read from a tile is lost.
func (i Icon) MarshalJSON() ([]byte, error) {
	if n := i.Name(); n != "" {
		return json.Marshal(n)
	}
	return json.Marshal(uint32(i))
}

// UnmarshalJSON accepts an icon name or number.
func (i *Icon) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		icon, ok := IconByName(name)
		if !ok {
			return errors.Errorf("marker: unknown icon name %q", name)
		}
		*i = icon
		return nil
	}
	var n uint32
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "marker: icon must be a name or a number")
	}
	*i = Icon(n)
	return nil
}
