package templates

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/synth"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
)

func writeTemplates(t *testing.T) (string, config.VisionConfig) {
	t.Helper()
	vc := config.DefaultVisionConfig()
	dir := t.TempDir()
	if err := synth.WriteTemplateDir(dir, vc); err != nil {
		t.Fatalf("写入模板失败: %v", err)
	}
	return dir, vc
}

func TestDirStoreLoad(t *testing.T) {
	dir, vc := writeTemplates(t)

	lib := NewLibrary(NewDirStore(dir), vc)
	defer lib.Close()

	if lib.IsLoaded() {
		t.Error("Load 之前不应为已加载状态")
	}
	if err := lib.Load(); err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if !lib.IsLoaded() {
		t.Fatal("加载后应为已加载状态")
	}

	ranks, suits := lib.Counts()
	if ranks != card.NumRanks || suits != card.NumSuits {
		t.Errorf("模板数量错误: ranks=%d suits=%d", ranks, suits)
	}
	if len(lib.Missing()) != 0 {
		t.Errorf("不应有缺失模板: %v", lib.Missing())
	}

	q := lib.Rank(card.Queen)
	if q.Cols() != vc.RankTemplateSize.Width || q.Rows() != vc.RankTemplateSize.Height {
		t.Errorf("点数模板尺寸错误: %dx%d", q.Cols(), q.Rows())
	}
	if q.Channels() != 1 {
		t.Errorf("模板应为单通道, 实际 %d", q.Channels())
	}
	h := lib.Suit(card.Hearts)
	if h.Cols() != vc.SuitTemplateSize.Width || h.Rows() != vc.SuitTemplateSize.Height {
		t.Errorf("花色模板尺寸错误: %dx%d", h.Cols(), h.Rows())
	}
}

func TestResizeToTargetSize(t *testing.T) {
	vc := config.DefaultVisionConfig()
	store := NewMemoryStore()
	defer store.Close()

	// 存入 2 倍尺寸的模板
	big := synth.SuitTemplate(card.Spades, config.Size{Width: 80, Height: 80})
	store.Put(CategorySuit, card.Spades.String(), big)
	big.Close()

	rank, err := synth.RankTemplate(card.Ace, config.Size{Width: 60, Height: 100})
	if err != nil {
		t.Fatal(err)
	}
	store.Put(CategoryRank, card.Ace.String(), rank)
	rank.Close()

	lib := NewLibrary(store, vc)
	defer lib.Close()
	if err := lib.Load(); err != nil {
		t.Fatal(err)
	}

	s := lib.Suit(card.Spades)
	if s.Cols() != 40 || s.Rows() != 40 {
		t.Errorf("花色模板应缩放到 40x40, 实际 %dx%d", s.Cols(), s.Rows())
	}
	a := lib.Rank(card.Ace)
	if a.Cols() != 30 || a.Rows() != 50 {
		t.Errorf("点数模板应缩放到 30x50, 实际 %dx%d", a.Cols(), a.Rows())
	}
}

func TestPartialLibrary(t *testing.T) {
	dir, vc := writeTemplates(t)
	if err := os.Remove(filepath.Join(dir, "ranks", "10.png")); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(NewDirStore(dir), vc)
	defer lib.Close()
	if err := lib.Load(); err != nil {
		t.Fatalf("单个模板缺失不应报错: %v", err)
	}
	if !lib.IsLoaded() {
		t.Fatal("缺少一个点数模板时仍应可用")
	}

	ranks, _ := lib.Counts()
	if ranks != card.NumRanks-1 {
		t.Errorf("点数模板应为 %d 个, 实际 %d", card.NumRanks-1, ranks)
	}
	if !lib.Rank(card.Ten).Empty() {
		t.Error("缺失的模板应为空 Mat")
	}

	missing := lib.Missing()
	if len(missing) != 1 || missing[0] != "ranks/10" {
		t.Errorf("缺失列表错误: %v", missing)
	}
}

func TestStoreUnavailable(t *testing.T) {
	vc := config.DefaultVisionConfig()
	lib := NewLibrary(NewDirStore(filepath.Join(t.TempDir(), "nope")), vc)
	defer lib.Close()

	err := lib.Load()
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("目录不存在应返回 ErrStoreUnavailable, 实际 %v", err)
	}
	if lib.IsLoaded() {
		t.Error("存储不可用时不应为已加载状态")
	}
}

func TestEmptyCategory(t *testing.T) {
	vc := config.DefaultVisionConfig()
	store := NewMemoryStore()
	defer store.Close()

	for _, s := range card.AllSuits() {
		m := synth.SuitTemplate(s, vc.SuitTemplateSize)
		store.Put(CategorySuit, s.String(), m)
		m.Close()
	}

	lib := NewLibrary(store, vc)
	defer lib.Close()
	if err := lib.Load(); err != nil {
		t.Fatal(err)
	}
	if lib.IsLoaded() {
		t.Error("没有点数模板时不应为已加载状态")
	}
	if got := len(lib.Missing()); got != card.NumRanks {
		t.Errorf("应缺失 %d 个点数模板, 实际 %d", card.NumRanks, got)
	}
}

func TestLoadOnce(t *testing.T) {
	vc := config.DefaultVisionConfig()
	store := NewMemoryStore()
	defer store.Close()

	m := synth.SuitTemplate(card.Clubs, vc.SuitTemplateSize)
	store.Put(CategorySuit, card.Clubs.String(), m)
	m.Close()

	lib := NewLibrary(store, vc)
	defer lib.Close()
	if err := lib.Load(); err != nil {
		t.Fatal(err)
	}

	// 加载后再写入存储不影响模板库
	d := synth.SuitTemplate(card.Diamonds, vc.SuitTemplateSize)
	store.Put(CategorySuit, card.Diamonds.String(), d)
	d.Close()

	if err := lib.Load(); err != nil {
		t.Fatal(err)
	}
	if _, suits := lib.Counts(); suits != 1 {
		t.Errorf("重复 Load 不应重新读取存储, suits=%d", suits)
	}
}

func TestDirStoreGet(t *testing.T) {
	dir, _ := writeTemplates(t)
	s := NewDirStore(dir)

	if p := s.Path(CategoryRank, "A"); !strings.HasSuffix(p, filepath.Join("ranks", "A.png")) {
		t.Errorf("路径错误: %s", p)
	}

	m, err := s.Get(CategorySuit, card.Hearts.String())
	if err != nil {
		t.Fatal(err)
	}
	if m.Empty() || m.Channels() != 1 {
		t.Errorf("应读取为单通道图像")
	}
	m.Close()

	m, err = s.Get(CategoryRank, "Z")
	m.Close()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("不存在的标签应返回 ErrNotFound, 实际 %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	store.Put(CategoryRank, "K", src)
	src.Close()

	got, err := store.Get(CategoryRank, "K")
	if err != nil {
		t.Fatal(err)
	}
	defer got.Close()
	if got.Rows() != 10 || got.GetUCharAt(0, 0) != 255 {
		t.Error("应返回保存的模板副本")
	}

	if _, err := store.Get(CategorySuit, "K"); !errors.Is(err, ErrNotFound) {
		t.Errorf("应返回 ErrNotFound, 实际 %v", err)
	}
}
