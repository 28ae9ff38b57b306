package sqlinline

// Integration credentials live in integration_tokens; properties->>'base_url'
// optionally overrides GENERATION_BASE_URL.

const QSelectIntegrationCredential = `--sql 5b0e7c3a-9d21-4f6e-8a47-2c1f0d9e6b38
select token, coalesce(properties->>'base_url', '')
from integration_tokens
where provider = $1::text
  and revoked_at is null
order by updated_at desc
limit 1;
`

const QUpsertIntegrationCredential = `--sql e2d94a61-7c0b-4b5f-9e13-6a8f2d4c0b77
insert into integration_tokens (id, provider, token, properties, created_at, updated_at, revoked_at)
values (
    gen_random_uuid(),
    $1::text,
    $2::text,
    case when $3::text = '' then '{}'::jsonb else jsonb_build_object('base_url', $3::text) end,
    now(),
    now(),
    null
)
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now(),
    revoked_at = null;
`

const QRevokeIntegrationCredential = `--sql 91c6f0b8-3e4a-4d27-b5d9-0f7e2a6c8d15
update integration_tokens
set revoked_at = now(),
    updated_at = now()
where provider = $1::text
  and revoked_at is null;
`
