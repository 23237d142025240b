package release

import (
	"fmt"

	"github.com/mc2-center/mc2-data-models/internal/sources"
	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/enrich"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// buildSteps turns step configs into enrichment steps. Joins read their
// right table from tables; center steps need centers.
func buildSteps(configs []StepConfig, tables sources.Tables, centers enrich.Centers) ([]enrich.Step, error) {
	steps := make([]enrich.Step, 0, len(configs))
	for i, c := range configs {
		step, err := buildStep(c, tables, centers)
		if err != nil {
			return nil, errors.NewConfigError("enrich", fmt.Sprintf("step %d (%s): %v", i, c.Type, err), err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(c StepConfig, tables sources.Tables, centers enrich.Centers) (enrich.Step, error) {
	switch c.Type {
	case "centers":
		if centers == nil {
			return nil, errors.NewValidationError("centers", nil, "no center directory configured")
		}
		fields := c.Fields
		if len(fields) == 0 {
			fields = []string{enrich.FieldPIFirst, enrich.FieldPILast, enrich.FieldPIEmail}
		}
		return enrich.CenterFields{Centers: centers, IDColumn: c.IDColumn, Fields: fields}, nil
	case "explode":
		return enrich.Explode{Column: c.Column, Sep: c.Sep}, nil
	case "constant":
		return enrich.Constant{Column: c.Column, Value: table.Normalize(c.Value)}, nil
	case "join":
		right, err := tables.Get(sources.ID(c.With))
		if err != nil {
			return nil, err
		}
		return enrich.Join{Right: right, LeftKey: c.LeftKey, RightKey: c.RightKey}, nil
	case "dedupe":
		return enrich.Dedupe{Columns: c.Columns, Keep: dedupe.ParseKeep(c.Keep)}, nil
	case "derive":
		defs, err := transform.Decode(c.Transform)
		if err != nil {
			return nil, err
		}
		pipeline, err := transform.Compile(defs)
		if err != nil {
			return nil, err
		}
		return enrich.Derive{Column: c.Column, Source: c.From, Transform: pipeline}, nil
	}
	return nil, errors.NewValidationError("type", c.Type,
		"step type must be one of centers, explode, constant, join, dedupe, derive")
}
