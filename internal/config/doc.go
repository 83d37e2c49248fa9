// Package config loads the mail-merge settings.
//
// The file is a flat JSON object:
//
//	{
//	  "from_name": "Finanzreferat",
//	  "mail_user": "finanzen@example.org",
//	  "mail_host": "mail.example.org"
//	}
//
// Optional keys are smtp_port (587), imap_port (993), sent_folder ("Sent") and
// send_delay ("5s"). Every key can be overridden from the environment with the
// FSEN_ prefix, e.g. FSEN_MAIL_HOST.
package config
