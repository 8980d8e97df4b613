// Package card 定义扑克牌身份空间：点数、花色、颜色与组合标签
package card

import (
	"fmt"
	"strings"
)

// Rank 点数
type Rank int

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// NumRanks 点数个数
const NumRanks = 13

var rankNames = [NumRanks]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// AllRanks 按固定顺序返回全部点数
func AllRanks() []Rank {
	out := make([]Rank, NumRanks)
	for i := range out {
		out[i] = Rank(i)
	}
	return out
}

// Valid 是否为合法点数
func (r Rank) Valid() bool {
	return r >= 0 && int(r) < NumRanks
}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// MarshalText 以标签形式序列化
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("非法点数: %d", int(r))
	}
	return []byte(rankNames[r]), nil
}

// UnmarshalText 从标签解析
func (r *Rank) UnmarshalText(b []byte) error {
	v, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRank 解析点数标签，接受 "AS" 作为 A 的别名
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "AS" {
		return Ace, nil
	}
	for i, n := range rankNames {
		if n == s {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("未知点数: %q", s)
}

// Suit 花色
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// NumSuits 花色个数
const NumSuits = 4

var suitNames = [NumSuits]string{"SPADES", "HEARTS", "DIAMONDS", "CLUBS"}

// AllSuits 按固定顺序返回全部花色
func AllSuits() []Suit {
	return []Suit{Spades, Hearts, Diamonds, Clubs}
}

// Valid 是否为合法花色
func (s Suit) Valid() bool {
	return s >= 0 && int(s) < NumSuits
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Color 花色对应的颜色
func (s Suit) Color() Color {
	switch s {
	case Hearts, Diamonds:
		return Red
	case Spades, Clubs:
		return Black
	default:
		return NoColor
	}
}

// MarshalText 以标签形式序列化
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("非法花色: %d", int(s))
	}
	return []byte(suitNames[s]), nil
}

// UnmarshalText 从标签解析
func (s *Suit) UnmarshalText(b []byte) error {
	v, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSuit 解析花色标签
func ParseSuit(s string) (Suit, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range suitNames {
		if n == s {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("未知花色: %q", s)
}

// SuitsOfColor 返回指定颜色的两个花色
func SuitsOfColor(c Color) []Suit {
	switch c {
	case Red:
		return []Suit{Hearts, Diamonds}
	case Black:
		return []Suit{Spades, Clubs}
	default:
		return nil
	}
}

// Color 颜色，NoColor 表示未检测
type Color int

const (
	NoColor Color = iota
	Red
	Black
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return ""
	}
}

// MarshalJSON NoColor 序列化为 null
func (c Color) MarshalJSON() ([]byte, error) {
	if c == NoColor {
		return []byte("null"), nil
	}
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON 解析 "red" / "black" / null
func (c *Color) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "null", "":
		*c = NoColor
	case "red":
		*c = Red
	case "black":
		*c = Black
	default:
		return fmt.Errorf("未知颜色: %s", b)
	}
	return nil
}

// Label 组合标签，形如 "A_SPADES"
func Label(r Rank, s Suit) string {
	return r.String() + "_" + s.String()
}

// ParseLabel 解析组合标签，宽松匹配：忽略大小写和首尾空白，接受 "AS" 别名
func ParseLabel(label string) (Rank, Suit, error) {
	parts := strings.Split(label, "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("非法标签: %q", label)
	}
	r, err := ParseRank(parts[0])
	if err != nil {
		return 0, 0, err
	}
	s, err := ParseSuit(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return r, s, nil
}

// IsValidLabel 标签是否与 52 个规范标签之一完全相同
func IsValidLabel(label string) bool {
	r, s, err := ParseLabel(label)
	return err == nil && Label(r, s) == label
}

// AllLabels 返回全部 52 个标签，花色优先
func AllLabels() []string {
	out := make([]string, 0, NumRanks*NumSuits)
	for _, s := range AllSuits() {
		for _, r := range AllRanks() {
			out = append(out, Label(r, s))
		}
	}
	return out
}
