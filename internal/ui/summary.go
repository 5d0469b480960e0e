package ui

import (
	"fmt"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
	"github.com/gravitrone/lectern/internal/ui/components"
)

// changeSummary describes what a commit of the current draft will do.
func changeSummary(sess *draft.Session, snap course.Course) ([]components.TableRow, []components.DiffRow) {
	store := sess.Store()
	base := sess.Baseline()

	newTopics, newItems, uploads := 0, 0, 0
	for _, t := range snap.Topics {
		if draft.IsTemp(t.ID) {
			newTopics++
		}
		for _, it := range t.Items {
			if draft.IsTemp(it.ID) {
				newItems++
			}
			uploads += pendingCount(store.Pending(it.ID))
		}
	}
	cert, hasCert := store.PendingCertificate()
	if hasCert {
		uploads++
	}
	deleted := len(store.DeletedTopics()) + len(store.DeletedItems())

	summary := []components.TableRow{
		{Label: "Course", Value: snap.Title},
		{Label: "New topics", Value: fmt.Sprint(newTopics)},
		{Label: "New items", Value: fmt.Sprint(newItems)},
		{Label: "Deletions", Value: fmt.Sprint(deleted)},
		{Label: "Uploads", Value: fmt.Sprint(uploads)},
	}

	var diffs []components.DiffRow
	if base.Title != snap.Title {
		diffs = append(diffs, components.DiffRow{Label: "Title", From: base.Title, To: snap.Title})
	}
	if base.Status != course.StatusPublished {
		from := base.Status
		if from == "" {
			from = course.StatusDraft
		}
		diffs = append(diffs, components.DiffRow{Label: "Status", From: from, To: course.StatusPublished})
	}
	if hasCert {
		diffs = append(diffs, components.DiffRow{Label: "Certificate", From: base.CertificateTemplate, To: cert.Name})
	}
	return summary, diffs
}
