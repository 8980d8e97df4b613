package classify

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/synth"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
	"github.com/zoeyai/cardvision/pkg/vision/templates"
)

// newLibrary 用合成模板构建完整模板库
func newLibrary(t testing.TB, vc config.VisionConfig) *templates.Library {
	t.Helper()
	store := templates.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	for _, r := range card.AllRanks() {
		m, err := synth.RankTemplate(r, vc.RankTemplateSize)
		if err != nil {
			t.Fatalf("生成点数模板失败: %v", err)
		}
		store.Put(templates.CategoryRank, r.String(), m)
		m.Close()
	}
	for _, s := range card.AllSuits() {
		m := synth.SuitTemplate(s, vc.SuitTemplateSize)
		store.Put(templates.CategorySuit, s.String(), m)
		m.Close()
	}

	lib := templates.NewLibrary(store, vc)
	t.Cleanup(func() { lib.Close() })
	return lib
}

func canonical(t testing.TB, spec synth.CardSpec, vc config.VisionConfig) gocv.Mat {
	t.Helper()
	img, err := synth.CanonicalCard(spec, vc)
	if err != nil {
		t.Fatalf("生成卡片失败: %v", err)
	}
	return img
}

func TestClassifyCanonical(t *testing.T) {
	vc := config.DefaultVisionConfig()
	c := NewClassifier(newLibrary(t, vc), vc)

	tests := []struct {
		rank card.Rank
		suit card.Suit
	}{
		{card.Queen, card.Spades},
		{card.Ace, card.Clubs},
		{card.Seven, card.Hearts},
		{card.Ten, card.Diamonds},
		{card.King, card.Hearts},
	}

	for _, tt := range tests {
		label := card.Label(tt.rank, tt.suit)
		t.Run(label, func(t *testing.T) {
			img := canonical(t, synth.CardSpec{Rank: synth.RankPtr(tt.rank), Suit: synth.SuitPtr(tt.suit)}, vc)
			defer img.Close()

			res, err := c.Classify(img)
			if err != nil {
				t.Fatalf("识别失败: %v", err)
			}
			t.Logf("%s", res.Format())

			if !res.Valid || res.Label != label {
				t.Fatalf("应识别为 %s, 实际 %s (valid=%v)", label, res.Label, res.Valid)
			}
			if res.RankConfidence < 0.9 || res.SuitConfidence < 0.9 {
				t.Errorf("置信度过低: rank=%.3f suit=%.3f", res.RankConfidence, res.SuitConfidence)
			}
			if res.Color != tt.suit.Color() {
				t.Errorf("颜色应为 %s, 实际 %s", tt.suit.Color(), res.Color)
			}
		})
	}
}

func TestClassifyUpsideDown(t *testing.T) {
	vc := config.DefaultVisionConfig()
	c := NewClassifier(newLibrary(t, vc), vc)

	img := canonical(t, synth.CardSpec{Rank: synth.RankPtr(card.Four), Suit: synth.SuitPtr(card.Clubs)}, vc)
	defer img.Close()
	flipped := cv.Rotate180(img)
	defer flipped.Close()

	res, err := c.Classify(flipped)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid || res.Label != "4_CLUBS" {
		t.Fatalf("倒置卡片应识别为 4_CLUBS, 实际 %s", res.Format())
	}
	if res.RankConfidence < 0.9 {
		t.Errorf("矫正后点数置信度应很高, 实际 %.3f", res.RankConfidence)
	}
}

func TestClassifyBlankRank(t *testing.T) {
	vc := config.DefaultVisionConfig()
	c := NewClassifier(newLibrary(t, vc), vc)

	img := canonical(t, synth.CardSpec{Suit: synth.SuitPtr(card.Spades)}, vc)
	defer img.Close()

	res, err := c.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Errorf("没有点数时不应有效: %s", res.Format())
	}
	if res.Rank != nil {
		t.Errorf("点数应为空, 实际 %s", res.Rank)
	}
	if res.Label != card.UnknownLabel {
		t.Errorf("标签应为 %s, 实际 %s", card.UnknownLabel, res.Label)
	}
}

func TestClassifyColorOverridesSuit(t *testing.T) {
	vc := config.DefaultVisionConfig()
	c := NewClassifier(newLibrary(t, vc), vc, WithScores(true))

	tint := synth.PinkTint
	img := canonical(t, synth.CardSpec{
		Rank:     synth.RankPtr(card.Ace),
		Suit:     synth.SuitPtr(card.Spades),
		Ink:      synth.InkBlack,
		SuitTint: &tint,
	}, vc)
	defer img.Close()

	res, err := c.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("%s", res.Format())

	if res.Color != card.Red {
		t.Fatalf("偏红的花色区域应判定为红色, 实际 %s", res.Color)
	}
	if res.Suit == nil {
		t.Fatal("黑桃形状应通过匹配阈值")
	}
	if res.Suit.Color() != card.Red {
		t.Errorf("花色应改为红色花色, 实际 %s", res.Suit)
	}
	if res.SuitScores == nil || res.SuitScores[card.Spades] < 0.9 {
		t.Error("分数表中黑桃仍应为最高分")
	}
}

func TestClassifyWithScores(t *testing.T) {
	vc := config.DefaultVisionConfig()
	img := canonical(t, synth.CardSpec{Rank: synth.RankPtr(card.Jack), Suit: synth.SuitPtr(card.Diamonds)}, vc)
	defer img.Close()

	plain := NewClassifier(newLibrary(t, vc), vc)
	res, err := plain.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	if res.RankScores != nil || res.SuitScores != nil || res.RedRatio != nil {
		t.Error("默认不应附带分数表")
	}

	scored := NewClassifier(newLibrary(t, vc), vc, WithScores(true))
	res, err = scored.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	if res.RankScores == nil || res.SuitScores == nil {
		t.Fatal("应附带分数表")
	}
	if res.RankScores[card.Jack] != res.RankConfidence {
		t.Errorf("分数表与置信度不一致: %.3f != %.3f", res.RankScores[card.Jack], res.RankConfidence)
	}
	for i, s := range res.SuitScores {
		if s < 0 || s > 1 {
			t.Errorf("花色分数 %d 越界: %f", i, s)
		}
	}
	if res.RedRatio == nil || *res.RedRatio <= 0 {
		t.Errorf("红色花色区域应有红色像素比例, 实际 %v", res.RedRatio)
	}

	black := canonical(t, synth.CardSpec{Rank: synth.RankPtr(card.Jack), Suit: synth.SuitPtr(card.Clubs)}, vc)
	defer black.Close()
	res, err = scored.Classify(black)
	if err != nil {
		t.Fatal(err)
	}
	if res.RedRatio == nil || *res.RedRatio != 0 {
		t.Errorf("黑色花色区域红色比例应为 0, 实际 %v", res.RedRatio)
	}
}

func TestClassifyErrors(t *testing.T) {
	vc := config.DefaultVisionConfig()

	t.Run("尺寸错误", func(t *testing.T) {
		c := NewClassifier(newLibrary(t, vc), vc)
		small := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 100, 100, gocv.MatTypeCV8UC3)
		defer small.Close()
		if _, err := c.Classify(small); !errors.Is(err, cv.ErrInvalidInput) {
			t.Errorf("应返回 ErrInvalidInput, 实际 %v", err)
		}
	})

	t.Run("空图像", func(t *testing.T) {
		c := NewClassifier(newLibrary(t, vc), vc)
		empty := gocv.NewMat()
		defer empty.Close()
		if _, err := c.Classify(empty); !errors.Is(err, cv.ErrInvalidInput) {
			t.Errorf("应返回 ErrInvalidInput, 实际 %v", err)
		}
	})

	t.Run("模板未加载", func(t *testing.T) {
		store := templates.NewMemoryStore()
		defer store.Close()
		lib := templates.NewLibrary(store, vc)
		defer lib.Close()

		c := NewClassifier(lib, vc)
		img := canonical(t, synth.CardSpec{Rank: synth.RankPtr(card.Two), Suit: synth.SuitPtr(card.Spades)}, vc)
		defer img.Close()
		if _, err := c.Classify(img); !errors.Is(err, ErrTemplatesNotLoaded) {
			t.Errorf("应返回 ErrTemplatesNotLoaded, 实际 %v", err)
		}
	})
}

func TestReconcile(t *testing.T) {
	scores := card.SuitScores{
		card.Spades:   0.9,
		card.Hearts:   0.4,
		card.Diamonds: 0.6,
		card.Clubs:    0.7,
	}

	tests := []struct {
		name     string
		suit     card.Suit
		detected card.Color
		want     card.Suit
		conf     float64
		changed  bool
	}{
		{"颜色一致", card.Spades, card.Black, card.Spades, 0.9, false},
		{"未检测颜色", card.Spades, card.NoColor, card.Spades, 0.9, false},
		{"黑改红", card.Spades, card.Red, card.Diamonds, 0.6, true},
		{"红改黑", card.Diamonds, card.Black, card.Spades, 0.9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := scores[tt.suit]
			got, gotConf, changed := Reconcile(tt.suit, conf, scores, tt.detected)
			if got != tt.want || gotConf != tt.conf || changed != tt.changed {
				t.Errorf("Reconcile = (%s, %.2f, %v), 期望 (%s, %.2f, %v)",
					got, gotConf, changed, tt.want, tt.conf, tt.changed)
			}
		})
	}

	t.Run("同分取前者", func(t *testing.T) {
		tie := card.SuitScores{card.Spades: 0.8, card.Hearts: 0.3, card.Diamonds: 0.3}
		got, _, _ := Reconcile(card.Spades, 0.8, tie, card.Red)
		if got != card.Hearts {
			t.Errorf("同分时应取红桃, 实际 %s", got)
		}
	})
}

func TestIsRed(t *testing.T) {
	vc := config.DefaultVisionConfig()

	solid := func(c gocv.Scalar) gocv.Mat {
		return gocv.NewMatWithSizeFromScalar(c, 40, 40, gocv.MatTypeCV8UC3)
	}

	red := solid(synth.Scalar(synth.InkRed))
	defer red.Close()
	white := solid(synth.Scalar(synth.Paper))
	defer white.Close()
	black := solid(synth.Scalar(synth.InkBlack))
	defer black.Close()
	// R-G=30 满足，R-B=30 不满足
	orange := solid(gocv.NewScalar(170, 170, 200, 0))
	defer orange.Close()

	if !IsRed(red, vc) || DetectColor(red, vc) != card.Red {
		t.Error("纯红区域应判定为红色")
	}
	if IsRed(white, vc) || IsRed(black, vc) {
		t.Error("黑白区域不应判定为红色")
	}
	if IsRed(orange, vc) {
		t.Error("R-B 未超过阈值时不应判定为红色")
	}

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	defer gray.Close()
	if IsRed(gray, vc) {
		t.Error("单通道图像不应判定为红色")
	}

	if r := RedMaskRatio(red, vc); r < 0.99 {
		t.Errorf("纯红区域的红色像素比例应为 1, 实际 %.2f", r)
	}
	if r := RedMaskRatio(white, vc); r != 0 {
		t.Errorf("白色区域的红色像素比例应为 0, 实际 %.2f", r)
	}
}

func TestOrientationHelpers(t *testing.T) {
	vc := config.DefaultVisionConfig()

	got := MirrorROI(vc.RankROI, vc.CardSize)
	want := config.ROI{X: 115, Y: 247, Width: 85, Height: 50}
	if got != want {
		t.Errorf("MirrorROI = %+v, 期望 %+v", got, want)
	}

	dark := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(99, 99, 99, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer dark.Close()
	if n := CountDark(dark, 100); n != 100 {
		t.Errorf("灰度 99 应计为暗像素, 实际 %d", n)
	}
	edge := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer edge.Close()
	if n := CountDark(edge, 100); n != 0 {
		t.Errorf("灰度 100 不应计为暗像素, 实际 %d", n)
	}

	img := canonical(t, synth.CardSpec{Rank: synth.RankPtr(card.Eight), Suit: synth.SuitPtr(card.Spades)}, vc)
	defer img.Close()

	out, rotated, err := CorrectOrientation(img, vc)
	if err != nil {
		t.Fatal(err)
	}
	out.Close()
	if rotated {
		t.Error("正向卡片不应旋转")
	}

	flipped := cv.Rotate180(img)
	defer flipped.Close()
	out, rotated, err = CorrectOrientation(flipped, vc)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if !rotated {
		t.Error("倒置卡片应旋转")
	}
}

func BenchmarkClassify(b *testing.B) {
	vc := config.DefaultVisionConfig()
	c := NewClassifier(newLibrary(b, vc), vc)
	img := canonical(b, synth.CardSpec{Rank: synth.RankPtr(card.Nine), Suit: synth.SuitPtr(card.Hearts)}, vc)
	defer img.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Classify(img); err != nil {
			b.Fatal(err)
		}
	}
}
