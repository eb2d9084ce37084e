package messages

// Filter reasons.
const (
	MsgReasonFlood     = "flood"
	MsgReasonBlacklist = "blacklist"
	MsgReasonTrigger   = "trigger"
)

// Automatic moderation.
const (
	MsgFloodWarning      = "%s, не флудите! Сообщение удалено."
	MsgBlacklistDeleted  = "Сообщение удалено: запрещённое содержимое."
	MsgBlacklistFallback = "⚠️ Запрещённое содержимое в сообщении!"
)

// Verification.
const (
	MsgCaptchaChallenge = "%s, добро пожаловать! Нажмите кнопку ниже в течение %d секунд, чтобы подтвердить, что вы не бот."
	MsgCaptchaButton    = "✅ Я не бот"
	MsgCaptchaWelcome   = "%s, добро пожаловать в чат!"
	MsgCaptchaKicked    = "%s не прошёл проверку и удалён из чата."
	MsgCaptchaNotYours  = "Эта кнопка не для вас."
	MsgCaptchaExpired   = "Проверка устарела."
	MsgCaptchaPassed    = "Проверка пройдена!"
)

// Moderation commands.
const (
	MsgNotAdmin        = "❌ Эта команда доступна только администраторам."
	MsgUserNotFound    = "❌ Пользователь не найден."
	MsgNoTarget        = "❌ Укажите пользователя: ответьте на его сообщение или напишите @username."
	MsgTargetProtected = "❌ Нельзя применить действие к администратору."
	MsgInvalidDuration = "❌ Неверная длительность. Укажите число минут больше нуля."
	MsgNoRights        = "❌ У бота недостаточно прав для этого действия."
	MsgActionFailed    = "❌ Не удалось выполнить действие."
	MsgNothingToDelete = "❌ Нет сообщения для удаления."
	MsgWarned          = "⚠️ %s получил предупреждение (%d/%d)."
	MsgWarnBanned      = "🚫 %s заблокирован: превышен лимит предупреждений (%d)."
	MsgMuted           = "🔇 %s замучен на %s."
	MsgUnmuted         = "🔊 %s размучен."
	MsgKicked          = "👢 %s исключён из чата."
	MsgBanned          = "🚫 %s заблокирован."
	MsgMessageDeleted  = "🗑 Сообщение удалено."
	MsgGenericFailure  = "❌ Произошла ошибка, попробуйте позже."
	MsgMinutesOne      = "минуту"
	MsgMinutesFew      = "минуты"
	MsgMinutesMany     = "минут"
)

// Reputation.
const (
	MsgRepUp        = "👍 %s повысил репутацию %s. Теперь: %d"
	MsgRepDown      = "👎 %s понизил репутацию %s. Теперь: %d"
	MsgRepCooldown  = "⏳ Подождите перед повторным изменением репутации."
	MsgRepSelf      = "❌ Нельзя менять репутацию самому себе."
	MsgRepBot       = "❌ Нельзя менять репутацию боту."
	MsgRepScore     = "⭐ Репутация %s: %d"
	MsgRepTopHeader = "🏆 Топ по репутации:"
	MsgRepTopLine   = "%d. %s — %d"
	MsgRepTopEmpty  = "Пока никто не получил репутацию."
)

// Polls.
const (
	MsgPollUsage          = "Использование: /poll Вопрос;Вариант1;Вариант2"
	MsgPollBadOption      = "Неверный вариант."
	MsgPollTooManyOptions = "❌ Слишком много вариантов (максимум %d)."
	MsgPollVoted          = "Голос учтён!"
	MsgPollAlreadyVoted   = "Вы уже голосовали."
	MsgPollNotFound       = "Опрос не найден."
	MsgPollDisabled       = "Опросы отключены."
	MsgPollHeader         = "📊 %s"
	MsgPollOptionLine     = "%s — %s"
	MsgVotesOne           = "голос"
	MsgVotesFew           = "голоса"
	MsgVotesMany          = "голосов"
)

// Chat info commands.
const (
	MsgPong             = "Pong!"
	MsgStart            = "Привет! Я бот-модератор. Добавьте меня в группу и выдайте права администратора."
	MsgHelp             = "Команды:\n/ping — проверка\n/rep — репутация\n/top — топ по репутации\n/set_name_topic Название — имя темы\n\nДля администраторов:\n/stats — статистика чата\n/invites — статистика приглашений\n/warn /mute [минуты] /unmute /kick /ban /delete\n/poll Вопрос;A;B — опрос\n/admin — панель управления (в личных сообщениях)"
	MsgTopicOnlyInTopic = "❌ Команда работает только внутри темы."
	MsgTopicNameUsage   = "Использование: /set_name_topic Название (до 100 символов)"
	MsgTopicNameSet     = "✅ Название темы сохранено: %s"
	MsgStatsHeader      = "📈 Статистика за 7 дней:\nСообщений: %d\nАктивных участников: %d"
	MsgStatsModeration  = "Удалено за флуд: %d\nУдалено фильтром: %d\nПредупреждений: %d, мутов: %d, киков: %d, банов: %d"
	MsgStatsTopHeader   = "Самые активные:"
	MsgStatsTopLine     = "%d. %s — %d"
	MsgInvitesHeader    = "🔗 Приглашения:"
	MsgInvitesLine      = "%s: пришло %d, ушло %d, удержание %d%%"
	MsgInvitesEmpty     = "Данных о приглашениях пока нет."
)

// Admin panel.
const (
	MsgAdminOnly          = "❌ Доступно только администраторам бота."
	MsgAdminPanel         = "⚙️ Панель управления"
	MsgAdminStatusOn      = "✅"
	MsgAdminStatusOff     = "❌"
	MsgBtnAntiflood       = "%s Антифлуд (%d сообщ. / %d сек.)"
	MsgBtnAntimat         = "%s Фильтр слов"
	MsgBtnAntimatWarnings = "%s Уведомления фильтра"
	MsgBtnCaptcha         = "%s Капча"
	MsgBtnFloodLimits     = "⏱ Лимиты флуда"
	MsgBtnWords           = "📝 Запрещённые слова"
	MsgBtnLinks           = "🔗 Запрещённые ссылки"
	MsgBtnTriggers        = "💬 Триггеры"
	MsgBtnPosts           = "🗓 Отложенные посты"
	MsgBtnReputation      = "%s Репутация"
	MsgBtnPolls           = "%s Опросы"
	MsgBtnPostText        = "✏️ Текст"
	MsgBtnPostTime        = "🕒 Время"
	MsgBtnPostButtons     = "🔘 Кнопки"
	MsgBtnPostDelete      = "🗑 Удалить пост"
	MsgBtnAdd             = "➕ Добавить"
	MsgBtnBack            = "⬅️ Назад"
	MsgBtnDelete          = "🗑 %s"
	MsgListEmpty          = "Список пуст."
	MsgWordsList          = "Запрещённые слова:\n%s"
	MsgLinksList          = "Запрещённые ссылки:\n%s"
	MsgTriggersList       = "Триггеры:\n%s"
	MsgPostsList          = "Отложенные посты:\n%s"
	MsgPromptWord         = "Отправьте слово (или несколько через запятую)."
	MsgPromptLink         = "Отправьте ссылку или домен."
	MsgPromptFlood        = "Отправьте лимит в формате «сообщений секунд», например: 5 10"
	MsgPromptTrigger      = "Отправьте триггер в формате «фраза1|фраза2 => ответ»."
	MsgPromptPostText     = "Отправьте новый текст поста."
	MsgPromptPostTime     = "Отправьте новое время в формате 2025-01-31 18:00."
	MsgPromptPostButtons  = "Отправьте кнопки, по одной на строку: «Текст | https://ссылка». «-» убирает кнопки."
	MsgPostView           = "Пост #%d\nЧат: %d\nВремя: %s\nКнопок: %d\n\n%s"
	MsgPostLine           = "#%d %s → %d"
	MsgPostNotFound       = "❌ Пост не найден или уже опубликован."
	MsgPastTime           = "❌ Это время уже прошло."
	MsgInvalidInput       = "❌ Неверный формат, попробуйте ещё раз. /cancel — отмена."
	MsgCancelled          = "Отменено."
	MsgSaved              = "✅ Сохранено."
	MsgDeleted            = "✅ Удалено."
	MsgScheduleUsage      = "Использование: /schedule 2025-01-31 18:00 <chat_id> текст"
	MsgScheduled          = "✅ Пост #%d запланирован на %s."
	MsgAdminUsage         = "Использование: /admin add <id> | /admin remove <id>"
	MsgAdminAdded         = "✅ Администратор %d добавлен."
	MsgAdminRemoved       = "✅ Администратор %d удалён."
	MsgUnknownCommand     = "Неизвестная команда. /help — список команд."
)
