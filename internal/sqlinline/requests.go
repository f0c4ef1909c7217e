package sqlinline

const requestColumns = `id, requester_uid, payload, status, donor_name, donor_email, version, created_at, updated_at`

const QInsertRequest = `--sql db2e3f21-6182-460e-871a-33c48e3370fd
insert into donation_requests (id, requester_uid, payload, status, version, created_at, updated_at)
values (gen_random_uuid(), $1::text, coalesce($2::jsonb, '{}'::jsonb), $3::text, 1, $4::timestamptz, $4::timestamptz)
returning id, version;
`

const QSelectRequestByID = `--sql b184aef0-f1ba-4728-a6e5-11241f3a01dc
select ` + requestColumns + `
from donation_requests
where id = $1::uuid
limit 1;
`

const QListRequests = `--sql 89191b85-14cf-4806-b1f1-7936b5073772
select ` + requestColumns + `
from donation_requests
where ($1::text = '' or requester_uid = $1::text)
  and ($2::text = '' or status = $2::text)
order by created_at desc, id desc
limit $3::int offset $4::int;
`

const QCountRequests = `--sql ba1cf9a4-e5f8-464b-92c9-92b4a64e4d07
select count(*)
from donation_requests
where ($1::text = '' or requester_uid = $1::text)
  and ($2::text = '' or status = $2::text);
`

const QUpdateRequestPayload = `--sql 520d986e-d3df-4dc0-891a-82a5183324c4
update donation_requests
set payload = $2::jsonb,
    version = version + 1,
    updated_at = $4::timestamptz
where id = $1::uuid
  and version = $3::bigint
returning ` + requestColumns + `;
`

// QCompareAndSetRequestStatus only matches while the row still carries the
// expected status and version, so concurrent confirmers cannot both win.
const QCompareAndSetRequestStatus = `--sql 1f09818c-44b5-4403-832e-e29cc2097e33
update donation_requests
set status = $4::text,
    donor_name = coalesce($5::text, donor_name),
    donor_email = coalesce($6::text, donor_email),
    version = version + 1,
    updated_at = $7::timestamptz
where id = $1::uuid
  and status = $2::text
  and version = $3::bigint
returning ` + requestColumns + `;
`

const QRequestExists = `--sql efc6e8cc-bc05-4bec-a785-5ff63fde5dc8
select exists(select 1 from donation_requests where id = $1::uuid);
`

const QDeleteRequest = `--sql 497f5471-a9f1-4a13-8086-a9d9085ee5a4
delete from donation_requests
where id = $1::uuid;
`
