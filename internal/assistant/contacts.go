package assistant

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// RefreshContact updates a contact's display name and profile picture from
// the transport. Every failure is logged and swallowed; contact metadata is
// decorative and must never affect reply handling.
func RefreshContact(ctx context.Context, store database.Store, session whatsapp.Session, log *slog.Logger, jid, pushName string) error {
	var picURL sql.NullString
	if url, err := session.ProfilePictureURL(ctx, jid); err != nil {
		log.DebugContext(ctx, "Profile picture unavailable", "jid", jid, "error", err)
	} else if url != "" {
		picURL = sql.NullString{String: url, Valid: true}
	}

	if err := store.UpsertContactInfo(ctx, jid, pushName, picURL); err != nil {
		log.WarnContext(ctx, "Failed to update contact info", "jid", jid, "error", err)
		return err
	}
	return nil
}
