package report

import (
	"fmt"
	"strings"

	"gosynergy/domain/analysis"
	"gosynergy/domain/synergy"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders an analysis result as a human-readable Markdown report.
func Markdown(r *analysis.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Synergy Analysis Report\n\n")
	fmt.Fprintf(&b, "**Additive A:** %s  \n", r.Metadata.AdditiveAName)
	fmt.Fprintf(&b, "**Additive B:** %s  \n", r.Metadata.AdditiveBName)
	fmt.Fprintf(&b, "**Effect parameter:** %s  \n", r.Metadata.EffectParameter)
	fmt.Fprintf(&b, "**Unit:** %s  \n", r.Metadata.Unit)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.CreatedAt.Time().Format("2006-01-02 15:04:05"))

	writeConditionTable(&b, r)
	writeSynergyTable(&b, r)
	writeTestSection(&b, r)
	writeModelSection(&b, r)

	return b.String()
}

// HTML renders the Markdown report to HTML.
func HTML(r *analysis.Result) []byte {
	md := []byte(Markdown(r))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}

func writeConditionTable(b *strings.Builder, r *analysis.Result) {
	fmt.Fprintf(b, "## Conditions\n\n")
	fmt.Fprintf(b, "| Condition | A | B | Mean | Std Dev | n | 95%% CI |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|\n")
	for _, key := range r.Conditions.SortedKeys() {
		cond := r.Conditions[key]
		ci := "N/A"
		if iv := cond.CI(); iv != nil {
			ci = Interval(iv.Lower, iv.Upper, 3)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %d | %s |\n",
			key,
			Concentration(cond.AmountA, r.Metadata.Unit),
			Concentration(cond.AmountB, r.Metadata.Unit),
			Number(cond.Mean(), 3), Number(cond.StdDev(), 3), cond.N(), ci)
	}
	fmt.Fprintf(b, "\n")
}

func writeSynergyTable(b *strings.Builder, r *analysis.Result) {
	fmt.Fprintf(b, "## Synergy Metrics\n\n")
	fmt.Fprintf(b, "| Combination | Observed | Expected (additive) | CI | Enhancement | Classification | p-value |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|\n")
	for _, key := range r.Conditions.CombinationKeys() {
		m, ok := r.Synergy[key]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			key,
			Number(m.ObservedEffect, 3), Number(m.ExpectedAdditive, 3),
			Number(m.CombinationIndex, 3), Percent(m.EnhancementPercent, 1),
			m.SynergyType, PValue(m.PValue))
	}
	fmt.Fprintf(b, "\n")
}

func writeTestSection(b *strings.Builder, r *analysis.Result) {
	fmt.Fprintf(b, "## Statistical Tests\n\n")

	if anova := r.Tests.ANOVA; anova != nil {
		sig := "not significant"
		if anova.PValue < synergy.SignificanceAlpha {
			sig = "significant"
		}
		fmt.Fprintf(b, "**One-way ANOVA:** F = %s, p = %s (%s)\n\n",
			Number(anova.FStatistic, 3), PValue(&anova.PValue), sig)
	} else {
		fmt.Fprintf(b, "**One-way ANOVA:** not available (insufficient replication)\n\n")
	}

	if tukey := r.Tests.Tukey; tukey != nil {
		if tukey.Error != "" {
			fmt.Fprintf(b, "**Tukey HSD:** failed (%s)\n\n", tukey.Error)
		} else {
			fmt.Fprintf(b, "**Tukey HSD pairwise comparisons:**\n\n")
			fmt.Fprintf(b, "| Group A | Group B | p-value |\n|---|---|---|\n")
			for _, pair := range tukey.Pairs {
				fmt.Fprintf(b, "| %s | %s | %s |\n", pair.GroupA, pair.GroupB, PValue(&pair.PValue))
			}
			fmt.Fprintf(b, "\n")
		}
	}

	if len(r.Tests.Normality) > 0 {
		fmt.Fprintf(b, "**Normality (Shapiro-Wilk):**\n\n")
		fmt.Fprintf(b, "| Condition | W | p-value | Normal |\n|---|---|---|---|\n")
		for _, key := range r.Conditions.SortedKeys() {
			n, ok := r.Tests.Normality[key]
			if !ok {
				continue
			}
			normal := "yes"
			if !n.IsNormal {
				normal = "no"
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", key, Number(n.Statistic, 4), PValue(&n.PValue), normal)
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeModelSection(b *strings.Builder, r *analysis.Result) {
	fmt.Fprintf(b, "## Models\n\n")

	if s := r.Models.ResponseSurface; s != nil {
		if s.Error != "" {
			fmt.Fprintf(b, "**Response surface:** fit failed (%s)\n\n", s.Error)
		} else {
			fmt.Fprintf(b, "**Response surface (degree %d):** R² = %s, RMSE = %s\n\n",
				s.Degree, Number(s.RSquared, 4), Number(s.RMSE, 4))
			fmt.Fprintf(b, "| Term | Coefficient |\n|---|---|\n")
			fmt.Fprintf(b, "| intercept | %s |\n", Number(s.Intercept, 6))
			for i, name := range s.FeatureNames {
				fmt.Fprintf(b, "| %s | %s |\n", name, Number(s.Coefficients[i], 6))
			}
			fmt.Fprintf(b, "\n")
		}
	} else {
		fmt.Fprintf(b, "**Response surface:** not fitted (too few conditions)\n\n")
	}

	writeDoseResponse(b, "Additive A", doseA(r))
	writeDoseResponse(b, "Additive B", doseB(r))
}

func doseA(r *analysis.Result) *analysis.DoseResponse {
	if r.Models.DoseResponse == nil {
		return nil
	}
	return r.Models.DoseResponse.AdditiveA
}

func doseB(r *analysis.Result) *analysis.DoseResponse {
	if r.Models.DoseResponse == nil {
		return nil
	}
	return r.Models.DoseResponse.AdditiveB
}

func writeDoseResponse(b *strings.Builder, label string, d *analysis.DoseResponse) {
	if d == nil {
		fmt.Fprintf(b, "**Dose-response (%s):** not fitted\n\n", label)
		return
	}
	fmt.Fprintf(b, "**Dose-response (%s):** IC50 = %s, Hill slope = %s, R² = %s\n\n",
		label, Number(d.IC50, 4), Number(d.HillSlope, 3), Number(d.RSquared, 4))
}
