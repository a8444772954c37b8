package rules

// Evaluable fields per entity kind. Conditions may only reference fields
// registered here for the rule's trigger entity; the registry is checked at
// save time. Evaluation itself treats any missing snapshot field as a
// non-match, so the registry never has to be consulted on the hot path.
var evaluableFields = map[EntityKind]map[string]struct{}{
	EntityTicket: setOf(
		"title",
		"description",
		"status",
		"priority",
		"category",
		"assignee_email",
		"requester_email",
	),
	EntityAsset: setOf(
		"name",
		"status",
		"category",
		"location",
		"model",
		"serial_number",
		"firmware_version",
		"os_version",
		"owner_email",
	),
}

// recipientFields maps each entity kind to the snapshot field holding the
// record's owning actor, used to derive SEND_EMAIL recipients.
var recipientFields = map[EntityKind]string{
	EntityTicket: "assignee_email",
	EntityAsset:  "owner_email",
}

func setOf(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// IsEvaluableField reports whether conditions on the given entity kind may
// reference the field.
func IsEvaluableField(kind EntityKind, field string) bool {
	fields, ok := evaluableFields[kind]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}

// RecipientField returns the snapshot field that names the owning actor for
// the entity kind.
func RecipientField(kind EntityKind) (string, bool) {
	f, ok := recipientFields[kind]
	return f, ok
}
