package sqlinline

const userColumns = `id, uid, email, name, avatar_url, blood_group, district, upazila, role, status, created_at, updated_at`

const QInsertUser = `--sql 2ccbc40c-6bb4-44e6-bf94-60188bf978cd
insert into users (id, uid, email, name, avatar_url, blood_group, district, upazila, role, status, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, $9::text, now(), now())
returning id, created_at, updated_at;
`

const QSelectUserByUID = `--sql 0e09058c-b7a5-404e-bfce-170690bc019e
select ` + userColumns + `
from users
where uid = $1::text
limit 1;
`

const QUpdateUserRole = `--sql e8520171-fe5d-47e5-a51f-ca70183861cf
update users
set role = $2::text, updated_at = now()
where uid = $1::text;
`

const QUpdateUserStatus = `--sql 046db5a2-6661-4f42-9bec-7d79ce4d001b
update users
set status = $2::text, updated_at = now()
where uid = $1::text;
`

const QUpdateUserProfile = `--sql b41c3f2c-9e42-4537-9ef8-de19d261ac0d
update users
set name = coalesce($2::text, name),
    avatar_url = coalesce($3::text, avatar_url),
    blood_group = coalesce($4::text, blood_group),
    district = coalesce($5::text, district),
    upazila = coalesce($6::text, upazila),
    updated_at = now()
where uid = $1::text
returning ` + userColumns + `;
`

const QListUsers = `--sql 90d8353a-230e-4c13-863e-5dcb526b63cb
select ` + userColumns + `
from users
where ($1::text = '' or status = $1::text)
  and ($2::text = '' or role = $2::text)
order by created_at asc, id asc
limit $3::int offset $4::int;
`

const QCountUsers = `--sql ccba593c-b85f-4106-a88c-c66670b3ff01
select count(*)
from users
where ($1::text = '' or status = $1::text)
  and ($2::text = '' or role = $2::text);
`

const QSearchDonors = `--sql fd9f4b94-7926-4b62-98d7-35b75384690f
select ` + userColumns + `
from users
where status = 'active'
  and ($1::text = '' or blood_group = $1::text)
  and ($2::text = '' or district = $2::text)
  and ($3::text = '' or upazila = $3::text)
order by created_at asc, id asc;
`
