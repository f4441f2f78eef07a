package analysis

import (
	"fmt"
	"math"
	"time"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/domain/synergy"
)

// The exported mapping uses only JSON-compatible values: numbers, strings,
// booleans, nil, []interface{} and map[string]interface{}. JSON has no
// infinity, so the +Inf combination-index sentinel travels as the string
// "Infinity" and parses back exactly.

const timeLayout = time.RFC3339Nano

// encodeFloat turns non-finite values into their string sentinels.
func encodeFloat(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	default:
		return v
	}
}

// decodeFloat reverses encodeFloat.
func decodeFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		switch x {
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		}
		return 0, fmt.Errorf("unrecognized numeric sentinel %q", x)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func encodeOptional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return encodeFloat(*v)
}

func decodeOptional(v interface{}) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := decodeFloat(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func encodeFloats(vs []float64) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = encodeFloat(v)
	}
	return out
}

func decodeFloats(v interface{}) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]float64, len(raw))
	for i, item := range raw {
		f, err := decodeFloat(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func decodeStrings(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func submap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	sub, ok := v.(map[string]interface{})
	return sub, ok
}

// ToMap converts the result into the plain nested mapping consumed by the
// export, persistence and report layers.
func (r *Result) ToMap() map[string]interface{} {
	raw := make(map[string]interface{}, len(r.Conditions))
	for key, cond := range r.Conditions {
		raw[string(key)] = conditionToMap(cond)
	}

	metrics := make(map[string]interface{}, len(r.Synergy))
	for key, m := range r.Synergy {
		metrics[string(key)] = metricToMap(m)
	}

	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"additive_a":       r.Metadata.AdditiveAName,
			"additive_b":       r.Metadata.AdditiveBName,
			"unit":             r.Metadata.Unit,
			"effect_parameter": r.Metadata.EffectParameter,
		},
		"raw_data":            raw,
		"synergy_results":     metrics,
		"statistical_results": r.Tests.toMap(),
		"model_results":       r.Models.toMap(),
		"timestamp":           r.CreatedAt.Time().Format(timeLayout),
	}
}

func conditionToMap(c *experiment.Condition) map[string]interface{} {
	samples := make(map[string]interface{}, len(c.Samples))
	for name, s := range c.Samples {
		samples[name] = sampleToMap(s)
	}
	return map[string]interface{}{
		"amount_a":   c.AmountA,
		"amount_b":   c.AmountB,
		"primary":    c.Primary,
		"samples":    samples,
		"created_at": c.CreatedAt.Time().Format(timeLayout),
	}
}

func sampleToMap(s *experiment.Sample) map[string]interface{} {
	m := map[string]interface{}{
		"values":   encodeFloats(s.Values),
		"mean":     s.Mean,
		"std":      s.StdDev,
		"n":        s.N,
		"ci_lower": nil,
		"ci_upper": nil,
	}
	if s.CI != nil {
		m["ci_lower"] = s.CI.Lower
		m["ci_upper"] = s.CI.Upper
	}
	return m
}

func metricToMap(m *synergy.Metric) map[string]interface{} {
	out := map[string]interface{}{
		"combination_id":      string(m.CombinationID),
		"amount_a":            m.AmountA,
		"amount_b":            m.AmountB,
		"observed_effect":     m.ObservedEffect,
		"expected_additive":   m.ExpectedAdditive,
		"expected_bliss":      m.ExpectedBliss,
		"combination_index":   encodeFloat(m.CombinationIndex),
		"enhancement":         m.Enhancement,
		"enhancement_percent": m.EnhancementPercent,
		"bliss_deviation":     m.BlissDeviation,
		"synergy_type":        m.SynergyType,
		"p_value":             encodeOptional(m.PValue),
		"cohens_d":            encodeOptional(m.CohensD),
		"ci_lower":            nil,
		"ci_upper":            nil,
	}
	if m.CI != nil {
		out["ci_lower"] = m.CI.Lower
		out["ci_upper"] = m.CI.Upper
	}
	return out
}

func (t StatisticalTestResults) toMap() map[string]interface{} {
	out := map[string]interface{}{}
	if t.ANOVA != nil {
		names := make([]interface{}, len(t.ANOVA.GroupNames))
		for i, n := range t.ANOVA.GroupNames {
			names[i] = n
		}
		out["anova"] = map[string]interface{}{
			"f_statistic":   t.ANOVA.FStatistic,
			"p_value":       t.ANOVA.PValue,
			"groups_tested": names,
			"significant":   t.ANOVA.Significant,
		}
	}
	if t.Tukey != nil {
		pairs := make([]interface{}, len(t.Tukey.Pairs))
		for i, p := range t.Tukey.Pairs {
			pairs[i] = map[string]interface{}{
				"group_a": p.GroupA,
				"group_b": p.GroupB,
				"p_value": p.PValue,
			}
		}
		names := make([]interface{}, len(t.Tukey.GroupNames))
		for i, n := range t.Tukey.GroupNames {
			names[i] = n
		}
		tm := map[string]interface{}{
			"pairwise_p_values": pairs,
			"group_names":       names,
		}
		if t.Tukey.Error != "" {
			tm["error"] = t.Tukey.Error
		}
		out["tukey"] = tm
	}
	if len(t.Normality) > 0 {
		norm := make(map[string]interface{}, len(t.Normality))
		for key, n := range t.Normality {
			norm[string(key)] = map[string]interface{}{
				"statistic": n.Statistic,
				"p_value":   n.PValue,
				"normal":    n.IsNormal,
			}
		}
		out["normality"] = norm
	}
	return out
}

func (m ModelResults) toMap() map[string]interface{} {
	out := map[string]interface{}{}
	if m.ResponseSurface != nil {
		names := make([]interface{}, len(m.ResponseSurface.FeatureNames))
		for i, n := range m.ResponseSurface.FeatureNames {
			names[i] = n
		}
		rs := map[string]interface{}{
			"r_squared":     m.ResponseSurface.RSquared,
			"rmse":          m.ResponseSurface.RMSE,
			"coefficients":  encodeFloats(m.ResponseSurface.Coefficients),
			"intercept":     m.ResponseSurface.Intercept,
			"feature_names": names,
			"degree":        m.ResponseSurface.Degree,
		}
		if m.ResponseSurface.Error != "" {
			rs["error"] = m.ResponseSurface.Error
		}
		out["response_surface"] = rs
	}
	if m.DoseResponse != nil {
		dr := map[string]interface{}{}
		if m.DoseResponse.AdditiveA != nil {
			dr["additive_a"] = doseResponseToMap(m.DoseResponse.AdditiveA)
		}
		if m.DoseResponse.AdditiveB != nil {
			dr["additive_b"] = doseResponseToMap(m.DoseResponse.AdditiveB)
		}
		out["dose_response"] = dr
	}
	return out
}

func doseResponseToMap(d *DoseResponse) map[string]interface{} {
	return map[string]interface{}{
		"top":              d.Top,
		"bottom":           d.Bottom,
		"ic50":             d.IC50,
		"hill_slope":       d.HillSlope,
		"r_squared":        d.RSquared,
		"parameter_errors": encodeFloats(d.ParameterErrors),
	}
}

// FromMap reconstructs a Result from the plain mapping produced by ToMap.
func FromMap(data map[string]interface{}) (*Result, error) {
	r := &Result{
		Conditions: experiment.ConditionSet{},
		Synergy:    map[core.ConditionKey]*synergy.Metric{},
	}

	if meta, ok := submap(data, "metadata"); ok {
		r.Metadata = Metadata{
			AdditiveAName:   stringAt(meta, "additive_a"),
			AdditiveBName:   stringAt(meta, "additive_b"),
			Unit:            stringAt(meta, "unit"),
			EffectParameter: stringAt(meta, "effect_parameter"),
		}
	}

	if raw, ok := submap(data, "raw_data"); ok {
		for key, v := range raw {
			condMap, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("condition %q: expected mapping", key)
			}
			cond, err := conditionFromMap(condMap)
			if err != nil {
				return nil, fmt.Errorf("condition %q: %w", key, err)
			}
			r.Conditions[core.ConditionKey(key)] = cond
		}
	}

	if metrics, ok := submap(data, "synergy_results"); ok {
		for key, v := range metrics {
			metricMap, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("synergy result %q: expected mapping", key)
			}
			m, err := metricFromMap(metricMap)
			if err != nil {
				return nil, fmt.Errorf("synergy result %q: %w", key, err)
			}
			r.Synergy[core.ConditionKey(key)] = m
		}
	}

	if tests, ok := submap(data, "statistical_results"); ok {
		parsed, err := testsFromMap(tests)
		if err != nil {
			return nil, err
		}
		r.Tests = parsed
	}

	if models, ok := submap(data, "model_results"); ok {
		parsed, err := modelsFromMap(models)
		if err != nil {
			return nil, err
		}
		r.Models = parsed
	}

	if ts, ok := data["timestamp"].(string); ok {
		if t, err := time.Parse(timeLayout, ts); err == nil {
			r.CreatedAt = core.NewTimestamp(t)
		}
	}

	return r, nil
}

func stringAt(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func conditionFromMap(m map[string]interface{}) (*experiment.Condition, error) {
	amountA, err := decodeFloat(m["amount_a"])
	if err != nil {
		return nil, err
	}
	amountB, err := decodeFloat(m["amount_b"])
	if err != nil {
		return nil, err
	}

	cond := &experiment.Condition{
		AmountA: amountA,
		AmountB: amountB,
		Primary: stringAt(m, "primary"),
		Samples: map[string]*experiment.Sample{},
	}
	if cond.Primary == "" {
		cond.Primary = experiment.DefaultParameter
	}

	if samples, ok := submap(m, "samples"); ok {
		for name, v := range samples {
			sampleMap, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("sample %q: expected mapping", name)
			}
			sample, err := sampleFromMap(sampleMap)
			if err != nil {
				return nil, fmt.Errorf("sample %q: %w", name, err)
			}
			cond.Samples[name] = sample
		}
	}
	if _, ok := cond.Samples[cond.Primary]; !ok {
		return nil, fmt.Errorf("primary parameter %q missing from samples", cond.Primary)
	}

	if ts, ok := m["created_at"].(string); ok {
		if t, err := time.Parse(timeLayout, ts); err == nil {
			cond.CreatedAt = core.NewTimestamp(t)
		}
	}
	return cond, nil
}

func sampleFromMap(m map[string]interface{}) (*experiment.Sample, error) {
	values, err := decodeFloats(m["values"])
	if err != nil {
		return nil, err
	}
	mean, err := decodeFloat(m["mean"])
	if err != nil {
		return nil, err
	}
	std, err := decodeFloat(m["std"])
	if err != nil {
		return nil, err
	}
	n, err := decodeFloat(m["n"])
	if err != nil {
		return nil, err
	}

	s := &experiment.Sample{
		Values: values,
		Mean:   mean,
		StdDev: std,
		N:      int(n),
	}
	if m["ci_lower"] != nil && m["ci_upper"] != nil {
		lower, err := decodeFloat(m["ci_lower"])
		if err != nil {
			return nil, err
		}
		upper, err := decodeFloat(m["ci_upper"])
		if err != nil {
			return nil, err
		}
		s.CI = &experiment.Interval{Lower: lower, Upper: upper}
	}
	return s, nil
}

func metricFromMap(m map[string]interface{}) (*synergy.Metric, error) {
	metric := &synergy.Metric{
		CombinationID: core.ConditionKey(stringAt(m, "combination_id")),
		SynergyType:   stringAt(m, "synergy_type"),
	}

	fields := []struct {
		key string
		dst *float64
	}{
		{"amount_a", &metric.AmountA},
		{"amount_b", &metric.AmountB},
		{"observed_effect", &metric.ObservedEffect},
		{"expected_additive", &metric.ExpectedAdditive},
		{"expected_bliss", &metric.ExpectedBliss},
		{"combination_index", &metric.CombinationIndex},
		{"enhancement", &metric.Enhancement},
		{"enhancement_percent", &metric.EnhancementPercent},
		{"bliss_deviation", &metric.BlissDeviation},
	}
	for _, f := range fields {
		v, err := decodeFloat(m[f.key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = v
	}

	var err error
	if metric.PValue, err = decodeOptional(m["p_value"]); err != nil {
		return nil, err
	}
	if metric.CohensD, err = decodeOptional(m["cohens_d"]); err != nil {
		return nil, err
	}
	if m["ci_lower"] != nil && m["ci_upper"] != nil {
		lower, err := decodeFloat(m["ci_lower"])
		if err != nil {
			return nil, err
		}
		upper, err := decodeFloat(m["ci_upper"])
		if err != nil {
			return nil, err
		}
		metric.CI = &experiment.Interval{Lower: lower, Upper: upper}
	}
	return metric, nil
}

func testsFromMap(m map[string]interface{}) (StatisticalTestResults, error) {
	var out StatisticalTestResults

	if anova, ok := submap(m, "anova"); ok {
		f, err := decodeFloat(anova["f_statistic"])
		if err != nil {
			return out, err
		}
		p, err := decodeFloat(anova["p_value"])
		if err != nil {
			return out, err
		}
		sig, _ := anova["significant"].(bool)
		out.ANOVA = &ANOVAResult{
			FStatistic:  f,
			PValue:      p,
			GroupNames:  decodeStrings(anova["groups_tested"]),
			Significant: sig,
		}
	}

	if tukey, ok := submap(m, "tukey"); ok {
		result := &TukeyResult{
			GroupNames: decodeStrings(tukey["group_names"]),
			Error:      stringAt(tukey, "error"),
		}
		if rawPairs, ok := tukey["pairwise_p_values"].([]interface{}); ok {
			for _, rawPair := range rawPairs {
				pairMap, ok := rawPair.(map[string]interface{})
				if !ok {
					continue
				}
				p, err := decodeFloat(pairMap["p_value"])
				if err != nil {
					return out, err
				}
				result.Pairs = append(result.Pairs, PairwisePValue{
					GroupA: stringAt(pairMap, "group_a"),
					GroupB: stringAt(pairMap, "group_b"),
					PValue: p,
				})
			}
		}
		out.Tukey = result
	}

	if norm, ok := submap(m, "normality"); ok {
		out.Normality = map[core.ConditionKey]NormalityResult{}
		for key, v := range norm {
			entry, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			stat, err := decodeFloat(entry["statistic"])
			if err != nil {
				return out, err
			}
			p, err := decodeFloat(entry["p_value"])
			if err != nil {
				return out, err
			}
			isNormal, _ := entry["normal"].(bool)
			out.Normality[core.ConditionKey(key)] = NormalityResult{
				Statistic: stat,
				PValue:    p,
				IsNormal:  isNormal,
			}
		}
	}

	return out, nil
}

func modelsFromMap(m map[string]interface{}) (ModelResults, error) {
	var out ModelResults

	if rs, ok := submap(m, "response_surface"); ok {
		r2, err := decodeFloat(rs["r_squared"])
		if err != nil {
			return out, err
		}
		rmse, err := decodeFloat(rs["rmse"])
		if err != nil {
			return out, err
		}
		coeffs, err := decodeFloats(rs["coefficients"])
		if err != nil {
			return out, err
		}
		intercept, err := decodeFloat(rs["intercept"])
		if err != nil {
			return out, err
		}
		degree, err := decodeFloat(rs["degree"])
		if err != nil {
			return out, err
		}
		out.ResponseSurface = &ResponseSurface{
			RSquared:     r2,
			RMSE:         rmse,
			Coefficients: coeffs,
			Intercept:    intercept,
			FeatureNames: decodeStrings(rs["feature_names"]),
			Degree:       int(degree),
			Error:        stringAt(rs, "error"),
		}
	}

	if dr, ok := submap(m, "dose_response"); ok {
		set := &DoseResponseSet{}
		if a, ok := submap(dr, "additive_a"); ok {
			fit, err := doseResponseFromMap(a)
			if err != nil {
				return out, err
			}
			set.AdditiveA = fit
		}
		if b, ok := submap(dr, "additive_b"); ok {
			fit, err := doseResponseFromMap(b)
			if err != nil {
				return out, err
			}
			set.AdditiveB = fit
		}
		out.DoseResponse = set
	}

	return out, nil
}

func doseResponseFromMap(m map[string]interface{}) (*DoseResponse, error) {
	d := &DoseResponse{}
	fields := []struct {
		key string
		dst *float64
	}{
		{"top", &d.Top},
		{"bottom", &d.Bottom},
		{"ic50", &d.IC50},
		{"hill_slope", &d.HillSlope},
		{"r_squared", &d.RSquared},
	}
	for _, f := range fields {
		v, err := decodeFloat(m[f.key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = v
	}
	errs, err := decodeFloats(m["parameter_errors"])
	if err != nil {
		return nil, err
	}
	d.ParameterErrors = errs
	return d, nil
}
