package catalog

import (
	"github.com/arloliu/wldfrag/fragment"
	"github.com/arloliu/wldfrag/schema"
)

// Schemas returns the layouts of every fragment type in the catalog, in
// type id order.
func Schemas() []*schema.Schema {
	return []*schema.Schema{TestFragmentSchema}
}

// Register adds the hand-written decoders of the catalog to reg.
func Register(reg *fragment.Registry) error {
	return reg.RegisterFunc(TestFragmentID, "TestFragment", decodeTestFragment)
}

// RegisterSchemas adds the catalog layouts to reg, decoded by the generic
// interpreter.
func RegisterSchemas(reg *fragment.Registry) error {
	for _, s := range Schemas() {
		if err := reg.RegisterSchema(s); err != nil {
			return err
		}
	}

	return nil
}
