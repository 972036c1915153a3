package acroform

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field flags (PDF 32000-1, tables 226, 228 and 229)
const (
	flagMultiline     = 1 << 12
	flagNoToggleToOff = 1 << 14
	flagRadio         = 1 << 15
)

// annotation flag: print
const annotPrint = 4

const checkboxOnState = "Yes"

type widgetKind int

const (
	kindText widgetKind = iota
	kindMultiline
	kindCheckbox
	kindRadio
)

// widget is a placed widget annotation waiting for its appearance streams.
type widget struct {
	dict    types.Dict
	kind    widgetKind
	box     box
	onState string
}

// fieldNode is a non-terminal field holding the fields named below it.
type fieldNode struct {
	dict types.Dict
	ref  types.IndirectRef
	kids types.Array
}

type radioGroup struct {
	dict   types.Dict
	ref    types.IndirectRef
	kids   types.Array
	states map[string]bool
}

// formBuilder adds AcroForm fields to a pdfcpu context.
type formBuilder struct {
	ctx      *model.Context
	fontSize float64

	helv, zadb types.IndirectRef

	fields  types.Array
	names   map[string]bool
	parents map[string]*fieldNode
	radios  map[string]*radioGroup
	widgets []*widget
}

func newFormBuilder(ctx *model.Context, fontSize float64) (*formBuilder, error) {
	b := &formBuilder{
		ctx:      ctx,
		fontSize: fontSize,
		names:    make(map[string]bool),
		parents:  make(map[string]*fieldNode),
		radios:   make(map[string]*radioGroup),
	}

	helv, err := ctx.IndRefForNewObject(types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica"),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Helvetica font: %w", err)
	}
	zadb, err := ctx.IndRefForNewObject(types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("ZapfDingbats"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add ZapfDingbats font: %w", err)
	}
	b.helv, b.zadb = *helv, *zadb

	return b, nil
}

// claim reserves a fully qualified field name. Periods separate the partial
// names of a field hierarchy, so a name is refused when a prefix of it is
// already a terminal field or when it already holds other fields.
func (b *formBuilder) claim(name string) error {
	if b.names[name] {
		return fmt.Errorf("field name already in use")
	}
	if b.parents[name] != nil {
		return fmt.Errorf("field name already holds %s.* fields", name)
	}
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		b.names[name] = true
		return nil
	}
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("field name has an empty segment")
		}
		if prefix := strings.Join(parts[:i], "."); i > 0 && b.names[prefix] {
			return fmt.Errorf("field name is nested under field %s", prefix)
		}
	}
	b.names[name] = true
	return nil
}

// nest links d below the non-terminal fields named by the leading segments
// of name, creating them on first use, and sets d's partial name. It returns
// the parent d must be registered with, nil for a top-level field.
func (b *formBuilder) nest(d types.Dict, name string) (*fieldNode, error) {
	parts := strings.Split(name, ".")
	var parent *fieldNode
	for i, part := range parts[:len(parts)-1] {
		path := strings.Join(parts[:i+1], ".")
		node, ok := b.parents[path]
		if !ok {
			nd := types.Dict{"T": pdfText(part)}
			if parent != nil {
				nd["Parent"] = parent.ref
			}
			ref, err := b.ctx.IndRefForNewObject(nd)
			if err != nil {
				return nil, fmt.Errorf("failed to add parent field %q: %w", path, err)
			}
			node = &fieldNode{dict: nd, ref: *ref, kids: types.Array{}}
			b.parents[path] = node
			b.register(parent, *ref)
		}
		parent = node
	}

	d["T"] = pdfText(parts[len(parts)-1])
	if parent != nil {
		d["Parent"] = parent.ref
	}
	return parent, nil
}

// register adds a field to its parent's /Kids, or to the form's /Fields.
func (b *formBuilder) register(parent *fieldNode, ref types.IndirectRef) {
	if parent == nil {
		b.fields = append(b.fields, ref)
		return
	}
	parent.kids = append(parent.kids, ref)
	parent.dict["Kids"] = parent.kids
}

func (b *formBuilder) addText(pageNr int, name string, bx box, multiline bool, fontSize float64) error {
	d := b.widgetDict(bx)
	d["FT"] = types.Name("Tx")
	parent, err := b.nest(d, name)
	if err != nil {
		return err
	}
	d["DA"] = types.StringLiteral(fmt.Sprintf("/Helv %s Tf 0 g", formatSize(fontSize)))
	d["MK"] = types.Dict{
		"BG": colorArray(textBackground),
		"BC": colorArray(textBorder),
	}
	kind := kindText
	if multiline {
		d["Ff"] = types.Integer(flagMultiline)
		kind = kindMultiline
	}

	ref, err := b.place(pageNr, d, &widget{dict: d, kind: kind, box: bx})
	if err != nil {
		return err
	}
	b.register(parent, ref)
	return nil
}

func (b *formBuilder) addCheckbox(pageNr int, name string, bx box) error {
	d := b.widgetDict(bx)
	d["FT"] = types.Name("Btn")
	parent, err := b.nest(d, name)
	if err != nil {
		return err
	}
	d["V"] = types.Name("Off")
	d["AS"] = types.Name("Off")
	d["DA"] = types.StringLiteral("/ZaDb 0 Tf 0 g")
	d["MK"] = types.Dict{
		"BG": colorArray(toggleBackground),
		"BC": colorArray(toggleBorder),
		"CA": types.StringLiteral("4"),
	}

	ref, err := b.place(pageNr, d, &widget{dict: d, kind: kindCheckbox, box: bx, onState: checkboxOnState})
	if err != nil {
		return err
	}
	b.register(parent, ref)
	return nil
}

// addRadioOption adds one option to the named group, creating the group's
// parent field on first use.
func (b *formBuilder) addRadioOption(pageNr int, group, option string, bx box) error {
	g, err := b.radioGroup(group)
	if err != nil {
		return err
	}

	state := uniqueState(stateName(option), g.states)
	g.states[state] = true

	d := b.widgetDict(bx)
	d["Parent"] = g.ref
	d["AS"] = types.Name("Off")
	d["MK"] = types.Dict{
		"BG": colorArray(toggleBackground),
		"BC": colorArray(toggleBorder),
		"CA": types.StringLiteral("l"),
	}

	ref, err := b.place(pageNr, d, &widget{dict: d, kind: kindRadio, box: bx, onState: state})
	if err != nil {
		return err
	}
	g.kids = append(g.kids, ref)
	g.dict["Kids"] = g.kids
	return nil
}

func (b *formBuilder) radioGroup(name string) (*radioGroup, error) {
	if g, ok := b.radios[name]; ok {
		return g, nil
	}

	d := types.Dict{
		"FT": types.Name("Btn"),
		"Ff": types.Integer(flagRadio | flagNoToggleToOff),
		"V":  types.Name("Off"),
		"DA": types.StringLiteral("/ZaDb 0 Tf 0 g"),
	}
	parent, err := b.nest(d, name)
	if err != nil {
		return nil, err
	}
	ref, err := b.ctx.IndRefForNewObject(d)
	if err != nil {
		return nil, fmt.Errorf("failed to add radio group %q: %w", name, err)
	}

	g := &radioGroup{dict: d, ref: *ref, kids: types.Array{}, states: make(map[string]bool)}
	b.radios[name] = g
	b.register(parent, *ref)
	return g, nil
}

func (b *formBuilder) widgetDict(bx box) types.Dict {
	return types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Widget"),
		"Rect":    types.NewNumberArray(bx.rect()...),
		"F":       types.Integer(annotPrint),
	}
}

// place registers the widget object and appends it to the page's /Annots.
func (b *formBuilder) place(pageNr int, d types.Dict, w *widget) (types.IndirectRef, error) {
	pageDict, pageRef, _, err := b.ctx.PageDict(pageNr, false)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to load page %d: %w", pageNr, err)
	}
	if pageDict == nil || pageRef == nil {
		return types.IndirectRef{}, fmt.Errorf("page %d not found", pageNr)
	}
	d["P"] = *pageRef

	ref, err := b.ctx.IndRefForNewObject(d)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to add widget: %w", err)
	}

	annots := types.Array{}
	if obj, found := pageDict.Find("Annots"); found {
		existing, err := b.ctx.DereferenceArray(obj)
		if err != nil {
			return types.IndirectRef{}, fmt.Errorf("failed to read annotations of page %d: %w", pageNr, err)
		}
		annots = append(annots, existing...)
	}
	pageDict["Annots"] = append(annots, *ref)

	b.widgets = append(b.widgets, w)
	return *ref, nil
}

// finish regenerates every widget appearance and wires the AcroForm
// dictionary into the catalog, merging with an existing form if present.
func (b *formBuilder) finish() error {
	for _, w := range b.widgets {
		if err := b.appearance(w); err != nil {
			return err
		}
	}

	root, err := b.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	fonts := types.Dict{"Helv": b.helv, "ZaDb": b.zadb}

	if obj, found := root.Find("AcroForm"); found {
		form, err := b.ctx.DereferenceDict(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference AcroForm: %w", err)
		}
		if form != nil {
			existing := types.Array{}
			if fieldsObj, found := form.Find("Fields"); found {
				if arr, err := b.ctx.DereferenceArray(fieldsObj); err == nil {
					existing = append(existing, arr...)
				}
			}
			form["Fields"] = append(existing, b.fields...)
			b.mergeResources(form, fonts)
			delete(form, "NeedAppearances")
			delete(form, "XFA")
			return nil
		}
	}

	form := types.Dict{
		"Fields": b.fields,
		"DA":     types.StringLiteral("/Helv 0 Tf 0 g"),
		"DR":     types.Dict{"Font": fonts},
	}
	ref, err := b.ctx.IndRefForNewObject(form)
	if err != nil {
		return fmt.Errorf("failed to add AcroForm: %w", err)
	}
	root["AcroForm"] = *ref
	return nil
}

func (b *formBuilder) mergeResources(form, fonts types.Dict) {
	dr := types.Dict{}
	if obj, found := form.Find("DR"); found {
		if d, err := b.ctx.DereferenceDict(obj); err == nil && d != nil {
			dr = d
		}
	}
	fontDict := types.Dict{}
	if obj, found := dr.Find("Font"); found {
		if d, err := b.ctx.DereferenceDict(obj); err == nil && d != nil {
			fontDict = d
		}
	}
	for k, v := range fonts {
		fontDict[k] = v
	}
	dr["Font"] = fontDict
	form["DR"] = dr
	if _, found := form.Find("DA"); !found {
		form["DA"] = types.StringLiteral("/Helv 0 Tf 0 g")
	}
}

func (b *formBuilder) appearance(w *widget) error {
	switch w.kind {
	case kindText, kindMultiline:
		n, err := b.formXObject(textAppearance(w.box.W, w.box.H), w.box, types.Dict{"Helv": b.helv})
		if err != nil {
			return err
		}
		w.dict["AP"] = types.Dict{"N": n}

	case kindCheckbox, kindRadio:
		draw := checkboxAppearance
		if w.kind == kindRadio {
			draw = radioAppearance
		}
		on, err := b.formXObject(draw(w.box.W, true), w.box, types.Dict{"ZaDb": b.zadb})
		if err != nil {
			return err
		}
		off, err := b.formXObject(draw(w.box.W, false), w.box, nil)
		if err != nil {
			return err
		}
		w.dict["AP"] = types.Dict{"N": types.Dict{w.onState: on, "Off": off}}
	}
	return nil
}

func (b *formBuilder) formXObject(content []byte, bx box, fonts types.Dict) (types.IndirectRef, error) {
	sd := types.StreamDict{
		Dict: types.Dict{
			"Type":    types.Name("XObject"),
			"Subtype": types.Name("Form"),
			"BBox":    types.NewNumberArray(0, 0, bx.W, bx.H),
		},
		Content: content,
	}
	if fonts != nil {
		sd.Dict["Resources"] = types.Dict{"Font": fonts}
	}
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to encode appearance stream: %w", err)
	}

	ref, err := b.ctx.IndRefForNewObject(sd)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to add appearance stream: %w", err)
	}
	return *ref, nil
}

func colorArray(c rgb) types.Array {
	return types.NewNumberArray(c[0], c[1], c[2])
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// pdfText encodes a field name as a PDF text string: a literal for printable
// ASCII, UTF-16BE with a byte order mark otherwise.
func pdfText(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(r.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2+2*len(units))
	buf = append(buf, 0xfe, 0xff)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}

// stateName turns an option name into a PDF name usable as an appearance state.
func stateName(option string) string {
	var sb strings.Builder
	for _, r := range option {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if s == "" || s == "Off" {
		s = "opt_" + s
	}
	return s
}

func uniqueState(state string, used map[string]bool) string {
	if !used[state] {
		return state
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", state, i)
		if !used[candidate] {
			return candidate
		}
	}
}
