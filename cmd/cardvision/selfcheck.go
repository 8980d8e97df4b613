package main

import (
	"fmt"
	"image"
	"os"

	"github.com/zoeyai/cardvision/internal/synth"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/stats"
	"github.com/zoeyai/cardvision/pkg/vision"
	"github.com/zoeyai/cardvision/pkg/vision/templates"
)

func generateTemplates(dir string, vc config.VisionConfig) error {
	return synth.WriteTemplateDir(dir, vc)
}

// runSelfCheck 用合成模板和合成场景识别全部 52 张牌，返回是否全部正确
func runSelfCheck(vc config.VisionConfig) (bool, error) {
	dir, err := os.MkdirTemp("", "cardvision-selfcheck-")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(dir)

	if err := synth.WriteTemplateDir(dir, vc); err != nil {
		return false, err
	}
	p, err := vision.NewPipeline(templates.NewDirStore(dir), vision.WithVisionConfig(vc))
	if err != nil {
		return false, err
	}
	defer p.Close()

	w, h := vc.CardSize.Width*2, vc.CardSize.Height+100
	origin := image.Pt(vc.CardSize.Width/2, 50)

	var truth []string
	var preds []card.Result
	for _, s := range card.AllSuits() {
		for _, r := range card.AllRanks() {
			res, err := checkCard(p, vc, r, s, w, h, origin)
			if err != nil {
				return false, fmt.Errorf("%s: %w", card.Label(r, s), err)
			}
			truth = append(truth, card.Label(r, s))
			preds = append(preds, res)
		}
	}

	a, err := stats.Analyze(truth, preds)
	if err != nil {
		return false, err
	}
	fmt.Print(a.Format())
	fmt.Print(stats.Summarize(preds).Format())
	return a.Correct == a.Total, nil
}

func checkCard(p *vision.Pipeline, vc config.VisionConfig, r card.Rank, s card.Suit, w, h int, origin image.Point) (card.Result, error) {
	c, err := synth.CanonicalCard(synth.CardSpec{Rank: synth.RankPtr(r), Suit: synth.SuitPtr(s)}, vc)
	if err != nil {
		return card.Unknown(), err
	}
	defer c.Close()

	frame, err := synth.Frame(w, h, synth.Background, synth.Placement{Card: c, Origin: origin})
	if err != nil {
		return card.Unknown(), err
	}
	defer frame.Close()

	res, err := p.ProcessLargest(frame)
	if err != nil {
		return card.Unknown(), err
	}
	if res == nil {
		return card.Unknown(), nil
	}
	defer res.Close()
	return res.Result, nil
}
