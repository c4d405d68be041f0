package telegram

// UI texts in Russian, matching the audience of the chats the bot serves.
const (
	textStart = "👋 Я бот-поздравлятор.\n\n" +
		"Запоминаю дни рождения участников и ежегодные события чата " +
		"и поздравляю сам — каждый день в назначенное время.\n\n" +
		"Напишите «мой др 28.06.1998» (год можно не указывать), " +
		"и я вас не забуду. Команды: /mybirthday /birthlist /whoisnext /list_events"

	textAbout = "🤖 Бот запоминает дни рождения и события чата и поздравляет автоматически:\n" +
		"• дни рождения — утром в день праздника\n" +
		"• события — ежегодно в свою дату\n" +
		"• 1-го числа месяца — список именинников месяца\n\n" +
		"29 февраля? Не волнуйтесь, в невисокосные годы поздравим 28-го."

	textChatNotAllowed = "⛔ Этот чат не активирован. Обратитесь к владельцу бота."
	textAdminsOnly     = "⛔ Команда доступна только администраторам чата."
	textInternalError  = "Что-то пошло не так, попробуйте позже."

	textBirthdayHint = "Не понял дату. Примеры: «мой др 28.06.1998», «мой др 10 июня», «др 5 мая»."
	textInvalidDate  = "Такой даты не существует. Проверьте день и месяц."
	textBirthdayGone = "🗑 День рождения удалён."
	textBirthdayNone = "У вас пока не записан день рождения. Напишите «мой др 28.06»."

	textBirthdayLimit = "В этом чате слишком много записей о днях рождения."
	textEventLimit    = "В этом чате слишком много событий."

	textAddUsage = "Ответьте командой /add <дата> на сообщение пользователя, например: /add 10 июня 1998."
	textDrUsage  = "Кого ищем? /dr <user_id>, /dr @username или /dr Имя."
	textNotFound = "Ничего не нашлось."

	textEventUsage = "Формат:\n/add_event <дата> <название>\n<текст поздравления>\n\n" +
		"Например:\n/add_event 10.06 День основания чата\nПоздравляю всех нас! 🎉"
	textEventIDUsage = "Укажите ID события, его покажет /list_events."

	textPoolUploadHint = "Пришлите текстовый файл: одно поздравление на строку."

	textRemoveChatConfirm = "⚠️ Подтверждение удаления\n\n" +
		"Чат %d будет удалён вместе со всеми его днями рождения и событиями.\n\n" +
		"Для подтверждения отправьте: да, удалить %d\nДля отмены: нет"

	textChatDeactivated = "❌ Бот деактивирован в этом чате владельцем.\n" +
		"Данные о днях рождения и событиях удалены."

	textOwnerHelp = "Команды владельца:\n" +
		"/add_chat <chat_id> [название] — разрешить чат\n" +
		"/remove_chat <chat_id> — убрать чат (удаляет его дни рождения и события)\n" +
		"/list_chats — список чатов\n" +
		"/stats — статистика\n" +
		"Загрузка поздравлений: пришлите .txt файл, одна строка — одно поздравление."
)
