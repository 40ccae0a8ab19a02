package mcpserver

// ContentSchema describes the content kinds and the field rules every record
// must satisfy. Served as a tool result and as the folio://content-schema
// resource.
const ContentSchema = `# Folio Content Schema

Every record has ` + "`id`" + ` (assigned on create), ` + "`created_at`" + ` and ` + "`updated_at`" + `.
Ordered kinds also carry ` + "`order_index`" + `, managed by the server: new records
go last, and the admin changes the order through reorder.

## profiles
- name: required, max 100 characters
- title_prefix: optional, max 50 characters
- description: required, max 2000 characters, basic HTML allowed
- roles: list, at least one entry, each max 80 characters
- cv_file_name, cv_file_url: the URL is required once a file name is set;
  absolute URL or a /uploads/ path
- is_default: exactly one profile is the default one

## about (ordered)
- role_title: required
- paragraphs: at least one non-empty paragraph
- stats: list of {label, value}, both required

## education (ordered)
- period, title, description: required

## experience (ordered)
- organization: required
- roles: at least one {job_title, start_date, end_date, is_current, description}
  - job_title and start_date required; dates use YYYY-MM
  - a current role has no end_date; a past role needs an end_date that is
    not before its start_date
- overall_period: derived from the roles when left empty

## skills (ordered)
- name: required
- level: 0 to 100
- category: required; categories are the tabs of the skills page

## projects (ordered)
- title: required; slug is derived from it
- description: required
- tech: at least one entry
- status: completed, in-progress or planned (default planned)
- is_published: only published projects appear on the portfolio
- github_url, live_url: optional absolute URLs
- image_url: optional absolute URL or /uploads/ path

## contacts (ordered)
- type: email, phone, location or website
- label, value: required; value must be an e-mail address for type email
- url: optional; absolute URL, mailto: or tel:

## socials (ordered)
- platform: required
- label: defaults to the platform name
- url: required absolute URL
`
