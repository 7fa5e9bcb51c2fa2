package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/record-agent/record"
	"github.com/tanpawarit/record-agent/record/student"
)

// StudentTools exposes the student store as capabilities.
func StudentTools(store *student.Store) []Tool {
	nameParam := Param{Name: "name", Type: schema.String, Desc: "The name of the student.", Required: true}

	return []Tool{
		{
			Name:       "read_students",
			Desc:       "Fetch all students from the database.",
			SideEffect: SideEffectRead,
			Handler: func(ctx context.Context, _ Args) record.Envelope {
				items, err := store.List(ctx)
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(items, student.MsgListed)
			},
		},
		{
			Name:       "get_student",
			Desc:       "Fetch a single student by name.",
			SideEffect: SideEffectRead,
			Params:     []Param{nameParam},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				st, err := store.GetByName(ctx, args.String("name"))
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(st, student.MsgFetched)
			},
		},
		{
			Name:       "add_student",
			Desc:       "Add a new student to the database.",
			SideEffect: SideEffectWrite,
			Params: []Param{
				nameParam,
				{Name: "age", Type: schema.Integer, Desc: "The age of the student.", Required: true},
				{Name: "grade", Type: schema.String, Desc: "The grade of the student.", Required: true},
			},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				id, err := store.Create(ctx, args.String("name"), int(args.Int("age")), args.String("grade"))
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(map[string]any{"id": id}, student.MsgCreated)
			},
		},
		{
			Name:       "update_student",
			Desc:       "Update a student's age or grade, addressed by name.",
			SideEffect: SideEffectWrite,
			Params: []Param{
				{Name: "name", Type: schema.String, Desc: "The name of the student to update.", Required: true},
				{Name: "age", Type: schema.Integer, Desc: "The new age of the student."},
				{Name: "grade", Type: schema.String, Desc: "The new grade of the student."},
			},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				var patch student.Patch
				if v := args.IntPtr("age"); v != nil {
					age := int(*v)
					patch.Age = &age
				}
				patch.Grade = args.StringPtr("grade")

				name := args.String("name")
				if err := store.Update(ctx, name, patch); err != nil {
					return record.Fail(err)
				}
				return record.OK(map[string]any{"name": name}, student.MsgUpdated)
			},
		},
		{
			Name:       "delete_student",
			Desc:       "Delete a student by name.",
			SideEffect: SideEffectDestructive,
			Params:     []Param{{Name: "name", Type: schema.String, Desc: "The name of the student to delete.", Required: true}},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				name := args.String("name")
				if err := store.Delete(ctx, name); err != nil {
					return record.Fail(err)
				}
				return record.OK(map[string]any{"name": name}, student.MsgDeleted)
			},
		},
	}
}
