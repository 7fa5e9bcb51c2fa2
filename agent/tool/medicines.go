package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/record-agent/record"
	"github.com/tanpawarit/record-agent/record/medicine"
	"github.com/tanpawarit/record-agent/record/student"
)

// MedicineTools exposes the medicine inventory as capabilities.
func MedicineTools(store *medicine.Store) []Tool {
	idParam := Param{Name: "id", Type: schema.Integer, Desc: "The medicine id. Ids are renumbered after every delete.", Required: true}

	return []Tool{
		{
			Name:       "list_medicines",
			Desc:       "List every medicine in the inventory ordered by id.",
			SideEffect: SideEffectRead,
			Handler: func(ctx context.Context, _ Args) record.Envelope {
				items, err := store.List(ctx)
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(items, medicine.MsgListed)
			},
		},
		{
			Name:       "get_medicine",
			Desc:       "Fetch the first medicine with the given name.",
			SideEffect: SideEffectRead,
			Params:     []Param{{Name: "name", Type: schema.String, Desc: "The medicine name.", Required: true}},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				m, err := store.GetByName(ctx, args.String("name"))
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(m, medicine.MsgFetched)
			},
		},
		{
			Name:       "add_medicine",
			Desc:       "Add a medicine to the inventory. The next free id is assigned.",
			SideEffect: SideEffectWrite,
			Params: []Param{
				{Name: "name", Type: schema.String, Desc: "The medicine name.", Required: true},
				{Name: "price", Type: schema.Number, Desc: "Unit price, zero or more.", Required: true},
				{Name: "quantity", Type: schema.Integer, Desc: "Units in stock, zero or more.", Required: true},
			},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				m, err := store.Create(ctx, medicine.Input{
					Name:     args.String("name"),
					Price:    args.Float("price"),
					Quantity: args.Int("quantity"),
				})
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(m, medicine.MsgCreated)
			},
		},
		{
			Name:       "update_medicine",
			Desc:       "Update the name, price or quantity of a medicine by id.",
			SideEffect: SideEffectWrite,
			Params: []Param{
				idParam,
				{Name: "name", Type: schema.String, Desc: "New medicine name."},
				{Name: "price", Type: schema.Number, Desc: "New unit price."},
				{Name: "quantity", Type: schema.Integer, Desc: "New stock quantity."},
			},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				m, err := store.Update(ctx, args.Int("id"), medicine.Patch{
					Name:     args.StringPtr("name"),
					Price:    args.FloatPtr("price"),
					Quantity: args.IntPtr("quantity"),
				})
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(m, medicine.MsgUpdated)
			},
		},
		{
			Name:       "delete_medicine",
			Desc:       "Delete a medicine by id. Remaining ids are renumbered to stay contiguous from 1.",
			SideEffect: SideEffectDestructive,
			Params:     []Param{idParam},
			Handler: func(ctx context.Context, args Args) record.Envelope {
				items, err := store.Delete(ctx, args.Int("id"))
				if err != nil {
					return record.Fail(err)
				}
				return record.OK(items, medicine.MsgDeleted)
			},
		},
	}
}

// BuildForRecords assembles the catalog for whichever stores are configured.
func BuildForRecords(students *student.Store, medicines *medicine.Store) (*Catalog, error) {
	var tools []Tool
	if students != nil {
		tools = append(tools, StudentTools(students)...)
	}
	if medicines != nil {
		tools = append(tools, MedicineTools(medicines)...)
	}
	return NewCatalog(tools...)
}
