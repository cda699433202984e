// Package schema defines the closed section vocabulary for procedural
// documents and a compiled JSON Schema registry for section payloads.
package schema

// SectionType identifies one kind of section in a procedural document.
// The vocabulary is closed: detection output is normalized onto these
// values, and anything unrecognized maps to TypeGeneral.
type SectionType string

const (
	TypeDocumentHeader     SectionType = "document_header"
	TypeSafety             SectionType = "safety"
	TypeMaterialRisks      SectionType = "material_risks_and_controls"
	TypeTaskActivities     SectionType = "task_activities"
	TypeAdditionalControls SectionType = "additional_controls_required"
	TypeAdditionalPPE      SectionType = "additional_ppe_required"
	TypeCompetencies       SectionType = "specific_competencies"
	TypeTooling            SectionType = "tooling_equipment_required"
	TypeReferenceDocs      SectionType = "reference_documentation"
	TypeReferenceDrawings  SectionType = "reference_drawings"
	TypeAttachedImages     SectionType = "attached_images"
	TypeGeneral            SectionType = "general"
)

// descriptions feed the detection prompt so the model labels sections
// with the exact vocabulary.
var descriptions = map[SectionType]string{
	TypeDocumentHeader:     "Document identification block: source, type, number, version, work description and purpose",
	TypeSafety:             "Safety information including icons, statements, and additional safety notes",
	TypeMaterialRisks:      "Material risks and their associated critical controls",
	TypeTaskActivities:     "Task activities with sequences and steps, including pre-task and post-task activities",
	TypeAdditionalControls: "Additional controls required with control types and reasons",
	TypeAdditionalPPE:      "Additional personal protective equipment (PPE) required",
	TypeCompetencies:       "Specific competencies, knowledge and skills required",
	TypeTooling:            "Tooling and equipment required including tool sets",
	TypeReferenceDocs:      "Reference documentation with document numbers and descriptions",
	TypeReferenceDrawings:  "Reference drawings including mechanical and structural/civil drawings",
	TypeAttachedImages:     "Attached images and diagrams",
	TypeGeneral:            "Content that does not fit any other section type",
}

// order fixes the iteration order for All and prompt rendering.
var order = []SectionType{
	TypeDocumentHeader,
	TypeSafety,
	TypeMaterialRisks,
	TypeTaskActivities,
	TypeAdditionalControls,
	TypeAdditionalPPE,
	TypeCompetencies,
	TypeTooling,
	TypeReferenceDocs,
	TypeReferenceDrawings,
	TypeAttachedImages,
	TypeGeneral,
}

// All returns every section type in stable order.
func All() []SectionType {
	out := make([]SectionType, len(order))
	copy(out, order)
	return out
}

// Valid reports whether t is part of the vocabulary.
func (t SectionType) Valid() bool {
	_, ok := descriptions[t]
	return ok
}

// Description returns the human-readable description of the section type.
func (t SectionType) Description() string {
	return descriptions[t]
}

// String returns the wire value of the section type.
func (t SectionType) String() string {
	return string(t)
}

// Normalize maps an arbitrary string onto the vocabulary. Unknown values
// and legacy aliases resolve to TypeGeneral.
func Normalize(s string) SectionType {
	switch s {
	case "attached images": // legacy alias with a space
		return TypeAttachedImages
	case "specific_competencies_knowledge_and_skills":
		return TypeCompetencies
	case "unhandled_content":
		return TypeGeneral
	}
	t := SectionType(s)
	if t.Valid() {
		return t
	}
	return TypeGeneral
}
